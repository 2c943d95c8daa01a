package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/models"
)

func TestBuildPitchScript_Order(t *testing.T) {
	p := models.Product{
		Name:        "Cream Pemutih",
		Price:       decimal.NewFromInt(100000),
		PromoPrice:  decimal.NewFromInt(75000),
		Description: "mau kulit cerah",
	}

	lines := BuildPitchScript(p)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (intro, price, closing)", len(lines))
	}
	if !strings.Contains(lines[0], "Cream Pemutih") || !strings.Contains(lines[0], "mau kulit cerah") {
		t.Errorf("intro line missing product or benefit: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Rp 100.000") || !strings.Contains(lines[1], "Rp 75.000") {
		t.Errorf("price line missing formatted prices: %q", lines[1])
	}
	if !strings.Contains(lines[1], "25%") {
		t.Errorf("price line missing discount: %q", lines[1])
	}
	if lines[2] != scriptClosing {
		t.Errorf("last line should be the closing call-to-action, got %q", lines[2])
	}
}

func TestBuildPitchScript_FlashSaleAnnouncementFirst(t *testing.T) {
	p := models.Product{
		Name:                "Parfum Premium",
		Price:               decimal.NewFromInt(299000),
		PromoPrice:          decimal.NewFromInt(199000),
		IsFlashSale:         true,
		SaleDurationMinutes: 10,
	}

	lines := BuildPitchScript(p)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4 with flash-sale announcement", len(lines))
	}
	if !strings.Contains(lines[0], "FLASH SALE") || !strings.Contains(lines[0], "10 menit") {
		t.Errorf("first line should announce the flash sale: %q", lines[0])
	}
}

func TestBuildPitchScript_DefaultBenefit(t *testing.T) {
	p := models.Product{Name: "Masker Wajah", PromoPrice: decimal.NewFromInt(49000)}
	lines := BuildPitchScript(p)
	if !strings.Contains(lines[0], defaultBenefit) {
		t.Errorf("intro should fall back to the default benefit: %q", lines[0])
	}
}

func TestFillTemplate(t *testing.T) {
	p := models.Product{
		Name:                "Serum Wajah Glowing",
		Price:               decimal.NewFromInt(150000),
		PromoPrice:          decimal.NewFromInt(99000),
		Description:         "mau glowing maksimal",
		SaleDurationMinutes: 15,
	}

	tests := []struct {
		name     string
		contains []string
	}{
		{"product_intro", []string{"Serum Wajah Glowing", "mau glowing maksimal"}},
		{"benefits", []string{"Keunggulan dari Serum Wajah Glowing", "kualitas premium"}},
		{"price", []string{"Rp 150.000", "Rp 99.000", "34%"}},
		{"testimonial", []string{"5 bintang"}},
		{"closing", []string{"checkout"}},
		{"promo", []string{"FLASH SALE", "15 menit"}},
		{"opening", []string{"Selamat datang di live shopping"}},
	}
	for _, tt := range tests {
		got, err := FillTemplate(tt.name, p)
		if err != nil {
			t.Errorf("FillTemplate(%q): %v", tt.name, err)
			continue
		}
		for _, want := range tt.contains {
			if !strings.Contains(got, want) {
				t.Errorf("FillTemplate(%q) = %q, missing %q", tt.name, got, want)
			}
		}
		if strings.Contains(got, "{") {
			t.Errorf("FillTemplate(%q) left a placeholder: %q", tt.name, got)
		}
	}
}

func TestFillTemplate_UnknownName(t *testing.T) {
	if _, err := FillTemplate("upsell", models.Product{}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("err = %v, want ErrUnknownTemplate", err)
	}
}

func TestTemplateNames(t *testing.T) {
	names := TemplateNames()
	want := []string{"benefits", "closing", "opening", "price", "product_intro", "promo", "testimonial"}
	if len(names) != len(want) {
		t.Fatalf("got %d names %v, want %d", len(names), names, len(want))
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{99000, "Rp 99.000"},
		{1234567, "Rp 1.234.567"},
	}
	for _, tt := range tests {
		if got := FormatPrice(decimal.NewFromInt(tt.amount)); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
