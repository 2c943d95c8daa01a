package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/models"
)

// ErrUnknownTemplate is returned when a script template name does not
// exist in the catalog.
var ErrUnknownTemplate = errors.New("unknown script template")

// Script copy spoken by the host persona, targeting an Indonesian
// live-shopping audience. Placeholders are filled per product.
const (
	scriptOpening = "Halo semuanya! Selamat datang di live shopping hari ini! Hari ini kita ada produk-produk menarik dengan harga spesial khusus live shopping. Jangan sampai kehabisan ya!"

	scriptProductIntro = "Okay, sekarang aku mau introduce produk yang luar biasa ini. {productName}. Produk ini tuh cocok banget untuk kamu yang {benefit}."

	scriptBenefits = "Keunggulan dari {productName} ini adalah: kualitas premium, hasil maksimal, dan yang penting harga sangat terjangkau! Sudah ribuan customer puas dengan produk ini."

	scriptPrice = "Harga normalnya {normalPrice}, tapi khusus live hari ini, kalian bisa dapetin dengan harga cuma {promoPrice}! Hemat banget kan! Diskon sampai {discount}%!"

	scriptTestimonial = "Banyak banget customer yang sudah buktiin sendiri hasilnya. Review-nya 5 bintang semua! Mereka bilang produk ini benar-benar worth it dan hasil terlihat cepat."

	scriptClosing = "Jadi tunggu apa lagi? Langsung klik link di bawah ya untuk checkout! Stok terbatas loh, siapa cepat dia dapat! Jangan sampai nyesel nanti kehabisan!"

	scriptFlashSale = "FLASH SALE DIMULAI! Dalam {duration} menit ke depan, harga special banget! Buruan checkout sebelum waktunya habis! Limited stock!"

	scriptGreeting = "Halo @%s! Selamat datang di live saya 👋"

	scriptGiftThanks = "Terima kasih @%s untuk %s! 💖"

	scriptOrderThanks = "Terima kasih @%s sudah order %s! Pesanan akan segera diproses. Thank you for shopping! 🛍️"

	defaultBenefit = "butuh produk berkualitas"

	defaultSaleMinutes = 10
)

// scriptTemplates maps the selectable template names to their copy.
var scriptTemplates = map[string]string{
	"opening":       scriptOpening,
	"product_intro": scriptProductIntro,
	"benefits":      scriptBenefits,
	"price":         scriptPrice,
	"testimonial":   scriptTestimonial,
	"closing":       scriptClosing,
	"promo":         scriptFlashSale,
}

// TemplateNames returns the selectable script template names, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(scriptTemplates))
	for name := range scriptTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FillTemplate fills the named template with the product's values.
func FillTemplate(name string, p models.Product) (string, error) {
	tpl, ok := scriptTemplates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	benefit := p.Description
	if benefit == "" {
		benefit = defaultBenefit
	}
	minutes := p.SaleDurationMinutes
	if minutes <= 0 {
		minutes = defaultSaleMinutes
	}
	r := strings.NewReplacer(
		"{productName}", p.Name,
		"{normalPrice}", FormatPrice(p.Price),
		"{promoPrice}", FormatPrice(p.PromoPrice),
		"{discount}", strconv.Itoa(p.DiscountPercent()),
		"{benefit}", benefit,
		"{duration}", strconv.Itoa(minutes),
	)
	return r.Replace(tpl), nil
}

// fill is FillTemplate for names known at compile time.
func fill(name string, p models.Product) string {
	s, _ := FillTemplate(name, p)
	return s
}

// OpeningScript is the stream opening line.
func OpeningScript() string {
	return scriptOpening
}

// BuildPitchScript composes the ordered pitch lines for a product: an
// optional flash-sale announcement, the introduction, the price and
// discount line, and the closing call-to-action.
func BuildPitchScript(p models.Product) []string {
	lines := make([]string, 0, 4)
	if p.IsFlashSale {
		lines = append(lines, fill("promo", p))
	}
	return append(lines,
		fill("product_intro", p),
		fill("price", p),
		fill("closing", p),
	)
}

// GreetingScript welcomes a new viewer by username.
func GreetingScript(username string) string {
	return fmt.Sprintf(scriptGreeting, username)
}

// GiftThanksScript thanks a viewer for a gift.
func GiftThanksScript(username, giftName string) string {
	return fmt.Sprintf(scriptGiftThanks, username, giftName)
}

// OrderThanksScript thanks a customer for an order.
func OrderThanksScript(customer, product string) string {
	return fmt.Sprintf(scriptOrderThanks, customer, product)
}

// FormatPrice renders an amount in rupiah with Indonesian thousand
// grouping, e.g. "Rp 1.234.567".
func FormatPrice(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}
