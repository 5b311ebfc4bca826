package queue

import "testing"

type stubCloser struct{ closed bool }

func (s stubCloser) IsClosed() bool { return s.closed }

func TestReusableRequiresBothLevelsOpen(t *testing.T) {
	tests := []struct {
		name     string
		conn, ch bool
		want     bool
	}{
		{"both open", false, false, true},
		{"connection closed", true, false, false},
		{"channel closed, connection open", false, true, false},
		{"both closed", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reusable(stubCloser{closed: tt.conn}, stubCloser{closed: tt.ch})
			if got != tt.want {
				t.Fatalf("reusable = %v, want %v", got, tt.want)
			}
		})
	}
}
