package domain

import (
	"testing"
	"time"
)

func TestIdempotencyStatus_Valid(t *testing.T) {
	for _, status := range []IdempotencyStatus{
		IdempotencyStatusProcessing,
		IdempotencyStatusDone,
		IdempotencyStatusFailed,
	} {
		if !status.Valid() {
			t.Errorf("status %s must be valid", status)
		}
	}
	if IdempotencyStatus("retrying").Valid() {
		t.Error("unknown status must be invalid")
	}
}

func TestIdempotencyRecord_Expired(t *testing.T) {
	now := time.Now().UTC()

	fresh := IdempotencyRecord{ExpiresAt: now.Add(time.Hour)}
	if fresh.Expired(now) {
		t.Error("record within replay window must not be expired")
	}

	stale := IdempotencyRecord{ExpiresAt: now.Add(-time.Minute)}
	if !stale.Expired(now) {
		t.Error("record past expires_at must be expired")
	}

	boundary := IdempotencyRecord{ExpiresAt: now}
	if !boundary.Expired(now) {
		t.Error("record expiring exactly now must count as expired")
	}
}

func TestIdempotencyRecord_Replayable(t *testing.T) {
	if (IdempotencyRecord{Status: IdempotencyStatusProcessing}).Replayable() {
		t.Error("processing record has no stored response yet")
	}
	if !(IdempotencyRecord{Status: IdempotencyStatusDone}).Replayable() {
		t.Error("done record must be replayable")
	}
	if !(IdempotencyRecord{Status: IdempotencyStatusFailed}).Replayable() {
		t.Error("failed record must be replayable")
	}
}
