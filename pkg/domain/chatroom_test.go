package domain

import (
	"testing"
	"time"
)

func TestChatroomRecordRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	room := Chatroom{
		ID:          "r1",
		Name:        "general",
		Description: "the default room",
		Creator:     "pub-a",
		Status:      StatusApproved,
		CreatedAt:   now,
		ApprovedBy:  "pub-mod",
		ApprovedAt:  now.Add(time.Minute),
	}

	back, err := ChatroomFromRecord("r1", room.Record())
	if err != nil {
		t.Fatalf("ChatroomFromRecord: %v", err)
	}
	if back.Name != room.Name || back.Description != room.Description {
		t.Errorf("name/description = %q/%q", back.Name, back.Description)
	}
	if back.Status != StatusApproved || back.ApprovedBy != "pub-mod" {
		t.Errorf("status = %q approvedBy = %q", back.Status, back.ApprovedBy)
	}
	if !back.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", back.CreatedAt, now)
	}
	if !back.ApprovedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("approvedAt = %v", back.ApprovedAt)
	}
}

func TestChatroomFromRecordRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		rec  map[string]any
	}{
		{"nil record", nil},
		{"missing name", map[string]any{"status": "approved"}},
		{"empty name", map[string]any{"name": "", "status": "approved"}},
		{"missing status", map[string]any{"name": "room"}},
		{"unknown status", map[string]any{"name": "room", "status": "limbo"}},
		{"non-string name", map[string]any{"name": 42, "status": "approved"}},
	}
	for _, tc := range cases {
		if _, err := ChatroomFromRecord("r1", tc.rec); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestChatroomRecordOmitsZeroStamps(t *testing.T) {
	rec := Chatroom{Name: "room", Status: StatusPending}.Record()
	for _, key := range []string{"approvedBy", "approvedAt", "rejectedBy", "rejectedAt", "description"} {
		if _, ok := rec[key]; ok {
			t.Errorf("zero-valued %s present in record", key)
		}
	}
}

func TestTimeFieldAcceptsRelayFloats(t *testing.T) {
	// A record that crossed a relay comes back with float64 timestamps.
	stamp := time.Now().UnixMilli()
	rec := map[string]any{
		"name":      "room",
		"status":    "approved",
		"createdAt": float64(stamp),
	}
	room, err := ChatroomFromRecord("r1", rec)
	if err != nil {
		t.Fatalf("ChatroomFromRecord: %v", err)
	}
	if room.CreatedAt.UnixMilli() != stamp {
		t.Errorf("createdAt = %v, want unix-milli %d", room.CreatedAt, stamp)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("limbo").Valid() || Status("").Valid() {
		t.Error("unknown status accepted")
	}
}
