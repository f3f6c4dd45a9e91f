package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func waitEntry(status string) *WaitingListEntry {
	return &WaitingListEntry{
		ID:             uuid.New(),
		OrgID:          orgTest,
		PatientID:      patient,
		PractitionerID: p1,
		Priority:       PriorityHigh,
		Status:         status,
	}
}

func TestCreateWaitingListEntry_Defaults(t *testing.T) {
	wait := newMemWaitRepo()
	svc, aud, _ := testService(newMemApptRepo(), wait)

	entry := &WaitingListEntry{OrgID: orgTest, PatientID: patient, PractitionerID: p1}
	if err := svc.CreateWaitingListEntry(context.Background(), "staff-1", entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Status != WaitingStatusWaiting {
		t.Errorf("status = %s, want waiting", entry.Status)
	}
	if entry.Priority != PriorityMedium {
		t.Errorf("priority = %s, want medium", entry.Priority)
	}
	if aud.count("create") != 1 {
		t.Error("expected audit event on create")
	}
}

func TestCreateWaitingListEntry_Validation(t *testing.T) {
	svc, _, _ := testService(newMemApptRepo(), newMemWaitRepo())

	cases := []struct {
		name  string
		entry *WaitingListEntry
	}{
		{"no org", &WaitingListEntry{PatientID: patient, PractitionerID: p1}},
		{"no patient", &WaitingListEntry{OrgID: orgTest, PractitionerID: p1}},
		{"no practitioner", &WaitingListEntry{OrgID: orgTest, PatientID: patient}},
		{"bad priority", &WaitingListEntry{OrgID: orgTest, PatientID: patient, PractitionerID: p1, Priority: "urgent"}},
		{"must start waiting", &WaitingListEntry{OrgID: orgTest, PatientID: patient, PractitionerID: p1, Status: "contacted"}},
		{"bad preferred time", &WaitingListEntry{OrgID: orgTest, PatientID: patient, PractitionerID: p1, PreferredTime: strPtr("9am")}},
	}
	for _, tc := range cases {
		if err := svc.CreateWaitingListEntry(context.Background(), "staff-1", tc.entry); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestUpdateWaitingListEntry_ForwardTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{WaitingStatusWaiting, WaitingStatusContacted, true},
		{WaitingStatusWaiting, WaitingStatusScheduled, true},
		{WaitingStatusWaiting, WaitingStatusCancelled, true},
		{WaitingStatusContacted, WaitingStatusScheduled, true},
		{WaitingStatusContacted, WaitingStatusCancelled, true},
		{WaitingStatusContacted, WaitingStatusWaiting, false},
	}
	for _, tc := range cases {
		entry := waitEntry(tc.from)
		svc, _, _ := testService(newMemApptRepo(), newMemWaitRepo(entry))

		_, err := svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
			&WaitingListPatch{Status: &tc.to})
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error: %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", tc.from, tc.to, err)
		}
	}
}

func TestUpdateWaitingListEntry_TerminalRejectsEverything(t *testing.T) {
	for _, status := range []string{WaitingStatusCancelled, WaitingStatusScheduled} {
		entry := waitEntry(status)
		svc, _, _ := testService(newMemApptRepo(), newMemWaitRepo(entry))

		// Even a notes-only patch is rejected once the entry is terminal.
		_, err := svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
			&WaitingListPatch{Notes: strPtr("call back")})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: err = %v, want ErrInvalidTransition", status, err)
		}

		contacted := WaitingStatusContacted
		_, err = svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
			&WaitingListPatch{Status: &contacted})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> contacted: err = %v, want ErrInvalidTransition", status, err)
		}
	}
}

func TestUpdateWaitingListEntry_PartialPatch(t *testing.T) {
	entry := waitEntry(WaitingStatusWaiting)
	svc, aud, _ := testService(newMemApptRepo(), newMemWaitRepo(entry))

	d := day("2025-02-01")
	got, err := svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
		&WaitingListPatch{
			Notes:         strPtr("prefers mornings"),
			Priority:      strPtr(PriorityLow),
			PreferredDate: &d,
			PreferredTime: strPtr("08:00"),
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != WaitingStatusWaiting {
		t.Errorf("status changed unexpectedly: %s", got.Status)
	}
	if got.Notes != "prefers mornings" || got.Priority != PriorityLow {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.PreferredTime == nil || *got.PreferredTime != "08:00" {
		t.Error("preferred_time not applied")
	}
	if aud.count("update") != 1 {
		t.Error("expected audit event on update")
	}
}

func TestUpdateWaitingListEntry_InvalidValues(t *testing.T) {
	entry := waitEntry(WaitingStatusWaiting)
	svc, _, _ := testService(newMemApptRepo(), newMemWaitRepo(entry))

	if _, err := svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
		&WaitingListPatch{Status: strPtr("archived")}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := svc.UpdateWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID,
		&WaitingListPatch{Priority: strPtr("urgent")}); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestDeleteWaitingListEntry_OrgScoped(t *testing.T) {
	entry := waitEntry(WaitingStatusWaiting)
	wait := newMemWaitRepo(entry)
	svc, aud, _ := testService(newMemApptRepo(), wait)

	if err := svc.DeleteWaitingListEntry(context.Background(), "other-org", "staff-1", entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound for foreign org", err)
	}
	if err := svc.DeleteWaitingListEntry(context.Background(), orgTest, "staff-1", entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aud.count("delete") != 1 {
		t.Error("expected audit event on delete")
	}
	if _, err := svc.GetWaitingListEntry(context.Background(), orgTest, entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Error("entry should be gone after delete")
	}
}
