package generation

import (
	"context"
	"testing"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hello")
	b := Fingerprint("hello")
	c := Fingerprint("world")
	if a != b {
		t.Fatalf("fingerprint must be deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("distinct texts must yield distinct fingerprints")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex, got %d chars", len(a))
	}
}

func TestEnsureSource_Idempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	hash := Fingerprint("some input")
	first, err := repo.EnsureSource(ctx, &Source{TextHash: hash, Length: 10, Model: "m", SourceType: "text"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := repo.EnsureSource(ctx, &Source{TextHash: hash, Length: 10, Model: "m", SourceType: "text"})
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same hash must resolve to the same row: %s vs %s", first.ID, second.ID)
	}
	if n := countRows(t, db, &Source{}); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestIncrementAccepted(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	src, err := repo.EnsureSource(ctx, &Source{TextHash: Fingerprint("x"), Length: 1, Model: "m", SourceType: "text"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	gen := &Generation{SourceID: src.ID, GeneratedCount: 3}
	if err := repo.CreateGeneration(ctx, gen); err != nil {
		t.Fatalf("create generation: %v", err)
	}

	if err := repo.IncrementAccepted(ctx, gen.ID, false); err != nil {
		t.Fatalf("increment unedited: %v", err)
	}
	if err := repo.IncrementAccepted(ctx, gen.ID, true); err != nil {
		t.Fatalf("increment edited: %v", err)
	}
	if err := repo.IncrementAccepted(ctx, gen.ID, true); err != nil {
		t.Fatalf("increment edited again: %v", err)
	}

	var got Generation
	if err := db.First(&got, "id = ?", gen.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AcceptedUneditedCount != 1 || got.AcceptedEditedCount != 2 {
		t.Fatalf("unexpected counters: unedited=%d edited=%d", got.AcceptedUneditedCount, got.AcceptedEditedCount)
	}
}

func TestCreateJobOrGetExisting_Idempotency(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	key := "client-key-1"
	first := &Job{ID: "01JOBAAAAAAAAAAAAAAAAAAAAA", UserID: 1, InputText: "t", IdempotencyKey: &key, Status: JobQueued}
	j1, created, err := repo.CreateJobOrGetExisting(ctx, first)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	dup := &Job{ID: "01JOBBBBBBBBBBBBBBBBBBBBBB", UserID: 1, InputText: "t", IdempotencyKey: &key, Status: JobQueued}
	j2, created, err := repo.CreateJobOrGetExisting(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if created {
		t.Fatalf("expected existing job returned")
	}
	if j2.ID != j1.ID {
		t.Fatalf("expected same job id, got %s vs %s", j2.ID, j1.ID)
	}

	// same key for another user is a separate job
	other := &Job{ID: "01JOBCCCCCCCCCCCCCCCCCCCCC", UserID: 2, InputText: "t", IdempotencyKey: &key, Status: JobQueued}
	_, created, err = repo.CreateJobOrGetExisting(ctx, other)
	if err != nil || !created {
		t.Fatalf("other user create: created=%v err=%v", created, err)
	}
}

func TestAppendErrorLog(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	if err := repo.AppendErrorLog(context.Background(), &ErrorLog{
		ErrorCode:    string(CodeNetworkError),
		ErrorMessage: "timeout",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	var got ErrorLog
	if err := db.First(&got).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID == "" || got.ErrorCode != "NETWORK_ERROR" {
		t.Fatalf("unexpected row: %+v", got)
	}
}
