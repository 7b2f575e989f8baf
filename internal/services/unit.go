package services

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/ports"
	"slices"
	"time"
)

// unitOfWork runs one operation under its resource locks and inside one transaction,
// so the read (conflict check, existing-invoice check) and the write commit atomically.
type unitOfWork struct {
	store  ports.Store
	locker ports.Locker
}

func (u unitOfWork) run(ctx context.Context, keys []string, fn func(ctx context.Context, tx ports.Tx) error) error {
	keys = lockKeys(keys...)

	release, err := u.locker.Acquire(ctx, keys...)
	if err != nil {
		return fmt.Errorf("acquire locks %v: %w", keys, err)
	}
	defer release()

	return u.store.InTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.LockKeys(ctx, keys...); err != nil {
			return fmt.Errorf("lock keys %v: %w", keys, err)
		}
		return fn(ctx, tx)
	})
}

// lockKeys drops empty keys, sorts and de-duplicates so every caller takes
// locks in the same order.
func lockKeys(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func tripKey(id string) string { return "trip:" + id }
func stopKey(id string) string { return "stop:" + id }
func jobKey(id string) string  { return "job:" + id }

func resourceKey(kind domain.ResourceKind, id string) string {
	if id == "" {
		return ""
	}
	return string(kind) + ":" + id
}

// formatNumber renders a date-scoped human-readable number, e.g. TRP-20260302-0007.
func formatNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
