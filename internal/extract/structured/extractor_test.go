package structured

import (
	"context"
	"testing"
	"time"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

func TestExtractEntitiesEmptyText(t *testing.T) {
	x := NewExtractor(nil)
	doc := entity.NewDocument("/tmp/empty.txt", 0, constants.Invoice)

	data, err := x.ExtractEntities(context.Background(), doc, entity.OCRResult{Text: "   "})
	if err != nil {
		t.Fatalf("ExtractEntities: %v", err)
	}
	if !data.Empty() {
		t.Fatal("expected empty extraction for blank text")
	}
	if data.ExtractionConfidence != 0 {
		t.Fatalf("ExtractionConfidence = %v, want 0", data.ExtractionConfidence)
	}
}

func TestExtractEntitiesInvoice(t *testing.T) {
	text := "Acme Widgets Inc\n" +
		"Invoice date: 2024-03-15\n" +
		"Account #: 12345678\n" +
		"Total due: $1,234.56\n"

	x := NewExtractor(nil)
	doc := entity.NewDocument("/tmp/invoice.pdf", 1024, constants.Invoice)
	data, err := x.ExtractEntities(context.Background(), doc, entity.OCRResult{Text: text})
	if err != nil {
		t.Fatalf("ExtractEntities: %v", err)
	}

	if len(data.Amounts) != 1 {
		t.Fatalf("Amounts = %d, want 1", len(data.Amounts))
	}
	if data.Amounts[0].Value != 1234.56 || data.Amounts[0].Currency != "USD" {
		t.Fatalf("amount = %+v, want 1234.56 USD", data.Amounts[0])
	}

	if len(data.Dates) != 1 {
		t.Fatalf("Dates = %d, want 1", len(data.Dates))
	}
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !data.Dates[0].Value.Equal(want) {
		t.Fatalf("date = %v, want %v", data.Dates[0].Value, want)
	}

	if len(data.Names) != 1 {
		t.Fatalf("Names = %d, want 1", len(data.Names))
	}
	if data.Names[0].Role != entity.RoleCompany {
		t.Fatalf("name role = %q, want company", data.Names[0].Role)
	}

	if len(data.Accounts) != 1 {
		t.Fatalf("Accounts = %d, want 1", len(data.Accounts))
	}
	if data.Accounts[0].Number != "12345678" {
		t.Fatalf("account = %q", data.Accounts[0].Number)
	}

	// mean of date 0.95, company 0.85, account 0.8; amounts carry no term.
	wantConf := float32((0.95 + 0.85 + 0.8) / 3)
	if d := data.ExtractionConfidence - wantConf; d > 1e-4 || d < -1e-4 {
		t.Fatalf("ExtractionConfidence = %v, want %v", data.ExtractionConfidence, wantConf)
	}
}

func TestExtractAmountsDedup(t *testing.T) {
	amounts := extractAmounts("subtotal $10.00 total $10.00 tip $2.50")
	if len(amounts) != 2 {
		t.Fatalf("len = %d, want 2 after dedup: %+v", len(amounts), amounts)
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     time.Time
		wantConf float32
	}{
		{
			name:     "iso",
			text:     "due 2024-03-15",
			want:     time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			wantConf: 0.95,
		},
		{
			name:     "textual",
			text:     "paid on Mar 15, 2024",
			want:     time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			wantConf: 0.9,
		},
		{
			name:     "slash month first",
			text:     "billed 03/04/2024",
			want:     time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
			wantConf: 0.7,
		},
		{
			name:     "slash day first fallback",
			text:     "billed 25/04/2024",
			want:     time.Date(2024, time.April, 25, 0, 0, 0, 0, time.UTC),
			wantConf: 0.7,
		},
		{
			name:     "dotted",
			text:     "am 15.03.2024",
			want:     time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			wantConf: 0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := extractDates(tt.text)
			if len(dates) != 1 {
				t.Fatalf("len = %d, want 1: %+v", len(dates), dates)
			}
			if !dates[0].Value.Equal(tt.want) {
				t.Fatalf("value = %v, want %v", dates[0].Value, tt.want)
			}
			if dates[0].Confidence != tt.wantConf {
				t.Fatalf("confidence = %v, want %v", dates[0].Confidence, tt.wantConf)
			}
		})
	}
}

func TestExtractDatesDedupKeepsBestConfidence(t *testing.T) {
	dates := extractDates("2024-03-15 aka 03/15/2024")
	if len(dates) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(dates), dates)
	}
	if dates[0].Confidence != 0.95 {
		t.Fatalf("confidence = %v, want the ISO match to win", dates[0].Confidence)
	}
}

func TestExtractNames(t *testing.T) {
	text := "Globex Corp\nBill To: Jane Smith\n"
	names := extractNames(text)
	if len(names) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(names), names)
	}
	var company, person bool
	for _, n := range names {
		switch n.Role {
		case entity.RoleCompany:
			company = n.Value == "Globex Corp"
		case entity.RolePerson:
			person = n.Value == "Jane Smith"
		}
	}
	if !company || !person {
		t.Fatalf("missing company or person: %+v", names)
	}
}

func TestExtractAccounts(t *testing.T) {
	text := "Account number: 0012345678\nIBAN DE89370400440532013000\ncard ending in 4242"
	accounts := extractAccounts(text)
	if len(accounts) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(accounts), accounts)
	}
	if accounts[2].Number != "****4242" {
		t.Fatalf("card tail = %q, want ****4242", accounts[2].Number)
	}
}
