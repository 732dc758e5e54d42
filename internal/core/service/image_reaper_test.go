package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
)

func TestImageReaper_RunOnce(t *testing.T) {
	repo := newStubProductRepo()
	store := newStubImageStore()
	now := time.Now()

	store.files["/uploads/images/held.png"] = now.Add(-48 * time.Hour)
	store.files["/uploads/images/orphan.png"] = now.Add(-48 * time.Hour)
	store.files["/uploads/images/fresh.png"] = now.Add(-time.Minute)
	store.files["/uploads/images/stuck.png"] = now.Add(-48 * time.Hour)
	store.deleteErr["/uploads/images/stuck.png"] = errBoom

	repo.products["p1"] = &domain.Product{ID: "p1", Images: []string{"/uploads/images/held.png"}, MainImage: "/uploads/images/held.png"}

	r := NewImageReaper(repo, store, ReaperConfig{Interval: time.Hour, GracePeriod: 24 * time.Hour}, zerolog.Nop())
	res := r.RunOnce(context.Background())

	if res.Scanned != 4 || res.Deleted != 1 || res.Errors != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := store.files["/uploads/images/orphan.png"]; ok {
		t.Fatalf("orphan should be deleted")
	}
	for _, kept := range []string{"held.png", "fresh.png", "stuck.png"} {
		if _, ok := store.files["/uploads/images/"+kept]; !ok {
			t.Fatalf("%s should be kept", kept)
		}
	}
}

func TestImageReaper_RunOnce_SkipsWhenReferencesUnavailable(t *testing.T) {
	repo := newStubProductRepo()
	repo.refsErr = errBoom
	store := newStubImageStore()
	store.files["/uploads/images/old.png"] = time.Now().Add(-48 * time.Hour)

	r := NewImageReaper(repo, store, ReaperConfig{GracePeriod: time.Hour}, zerolog.Nop())
	res := r.RunOnce(context.Background())

	if res.Errors != 1 || res.Deleted != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.files) != 1 {
		t.Fatalf("nothing should be deleted")
	}
}

func TestImageReaper_RunOnce_ListFailure(t *testing.T) {
	store := newStubImageStore()
	store.listErr = errBoom

	r := NewImageReaper(newStubProductRepo(), store, ReaperConfig{}, zerolog.Nop())
	if res := r.RunOnce(context.Background()); res.Errors != 1 || res.Scanned != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestImageReaper_StartStop(t *testing.T) {
	r := NewImageReaper(newStubProductRepo(), newStubImageStore(), ReaperConfig{Interval: time.Hour}, zerolog.Nop())

	r.Start()
	r.Start() // no-op while running

	done := make(chan struct{})
	go func() {
		r.Stop()
		r.Stop() // no-op once stopped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
