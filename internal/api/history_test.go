package api

import (
	"context"
	"errors"
	"testing"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                 string
		total, page, size    int
		wantPage, wantPages  int
		wantStart, wantEnd   int
		wantPrev, wantNext   bool
	}{
		{"first of seven", 7, 1, 3, 1, 3, 0, 3, false, true},
		{"middle of seven", 7, 2, 3, 2, 3, 3, 6, true, true},
		{"last of seven", 7, 3, 3, 3, 3, 6, 7, true, false},
		{"past the end", 7, 9, 3, 3, 3, 6, 7, true, false},
		{"before the start", 7, 0, 3, 1, 3, 0, 3, false, true},
		{"empty", 0, 1, 5, 1, 1, 0, 0, false, false},
		{"exact fit", 6, 2, 3, 2, 2, 3, 6, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.total, tt.page, tt.size)
			if got.Page != tt.wantPage || got.TotalPages != tt.wantPages {
				t.Errorf("page %d/%d, want %d/%d", got.Page, got.TotalPages, tt.wantPage, tt.wantPages)
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("range [%d,%d), want [%d,%d)", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if got.HasPrev != tt.wantPrev || got.HasNext != tt.wantNext {
				t.Errorf("prev/next %v/%v, want %v/%v", got.HasPrev, got.HasNext, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestPageOf(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, info := PageOf(items, 3, 3)
	if len(page) != 1 || page[0] != 7 {
		t.Errorf("Expected [7], got %v", page)
	}
	if !info.HasPrev || info.HasNext {
		t.Errorf("Expected previous only on last page, got %+v", info)
	}
}

func TestGetHistory_Paged(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Historian", nil)
	for i := 0; i < 6; i++ {
		if _, err := s.Credit(ctx, user.Id, decimal.NewFromInt(100), models.CreditWork, "Shift"); err != nil {
			t.Fatalf("Credit failed: %v", err)
		}
	}
	if _, err := submit(s, user.Id, models.TierDelayed, 150); err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	first, err := s.GetHistory(ctx, user.Id, 1, 5)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if first.Total != 7 || len(first.Items) != 5 || !first.HasNext || first.HasPrev {
		t.Errorf("Unexpected first page %+v", first.PageInfo)
	}
	if first.Items[0].Kind != models.HistoryWithdrawal {
		t.Errorf("Expected the newest entry to be the withdrawal, got %s", first.Items[0].Kind)
	}

	second, err := s.GetHistory(ctx, user.Id, 2, 5)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(second.Items) != 2 || second.HasNext || !second.HasPrev {
		t.Errorf("Unexpected second page %+v", second.PageInfo)
	}

	if _, err := s.GetHistory(ctx, 404, 1, 5); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}
