package memory

import "testing"

func TestUserIndex(t *testing.T) {
	idx := NewUserIndex()

	idx.Add(1, "a")
	idx.Add(1, "b")
	idx.Add(2, "c")

	if idx.Count(1) != 2 || idx.Count(2) != 1 || idx.Count(3) != 0 {
		t.Errorf("counts = %d/%d/%d", idx.Count(1), idx.Count(2), idx.Count(3))
	}

	idx.Remove(1, "a")
	if got := idx.Get(1); len(got) != 1 || got[0] != "b" {
		t.Errorf("Get(1) = %v", got)
	}

	idx.Remove(2, "c")
	if idx.Users() != 1 {
		t.Errorf("Users() = %d, want 1", idx.Users())
	}
	idx.Remove(9, "x")
	if idx.Get(9) != nil {
		t.Error("unknown user should have no sessions")
	}
}

func TestSessionSet(t *testing.T) {
	s := NewSessionSet()
	s.Add("a")
	s.Add("a")
	if s.Len() != 1 || !s.Contains("a") {
		t.Errorf("set = %v", s.Items())
	}
	s.Remove("a")
	if s.Contains("a") {
		t.Error("a should be removed")
	}
}
