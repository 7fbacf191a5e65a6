// Package profile generates synthetic registration identities and contact
// form data. Every value is derived from a single seeded fake-data source so
// a fixed seed reproduces the same sequence of profiles.
package profile

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/result"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPassword is the fixed password given to every generated account
const DefaultPassword = "mmmmmmmm"

// maxAttempts bounds retries against a fake-data source returning empty values
const maxAttempts = 5

// Address is one postal address
type Address struct {
	Line1  string `json:"line1"`
	Line2  string `json:"line2,omitempty"`
	City   string `json:"city"`
	Region string `json:"region"`
	Zip    string `json:"zip"`
}

// Profile is a generated test identity for the registration form
type Profile struct {
	CompanyName    string  `json:"companyName"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	SiteName       string  `json:"siteName"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	CompanyAddress Address `json:"companyAddress"`
	CompanyPhone   string  `json:"companyPhone"`
	UserAddress    Address `json:"userAddress"`
	UserPhone      string  `json:"userPhone"`
}

// Fields flattens the profile onto the registration form's field names
func (p *Profile) Fields() map[string]string {
	return map[string]string{
		"companyName":       p.CompanyName,
		"email":             p.Email,
		"password":          p.Password,
		"confirmPassword":   p.Password,
		"siteName":          p.SiteName,
		"companyAddress":    p.CompanyAddress.Line1,
		"companyAddress2":   p.CompanyAddress.Line2,
		"companyCity":       p.CompanyAddress.City,
		"companyRegionCode": p.CompanyAddress.Region,
		"companyZip":        p.CompanyAddress.Zip,
		"companyPhone":      p.CompanyPhone,
		"firstName":         p.FirstName,
		"lastName":          p.LastName,
		"userAddress":       p.UserAddress.Line1,
		"userAddress2":      p.UserAddress.Line2,
		"userCity":          p.UserAddress.City,
		"userRegionCode":    p.UserAddress.Region,
		"userZip":           p.UserAddress.Zip,
		"userPhone":         p.UserPhone,
	}
}

// Contact is the data for one contact form submission
type Contact struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Generator produces profiles. It is not safe for concurrent use.
type Generator struct {
	config   config.ProfileConfig
	faker    *gofakeit.Faker
	password string
	title    cases.Caser
}

// NewGenerator creates a generator. A zero seed draws a random one.
func NewGenerator(cfg config.ProfileConfig, seed uint64) *Generator {
	return &Generator{
		config:   cfg,
		faker:    gofakeit.New(seed),
		password: DefaultPassword,
		title:    cases.Title(language.English),
	}
}

// UsePassword overrides the password given to generated accounts
func (g *Generator) UsePassword(password string) *Generator {
	if password != "" {
		g.password = password
	}
	return g
}

// Generate builds a new internally consistent profile. It only fails when
// the fake-data source keeps returning empty values.
func (g *Generator) Generate() (*Profile, error) {
	company, err := g.nonEmpty("company name", g.faker.Company)
	if err != nil {
		return nil, err
	}
	filler, err := g.nonEmpty("company word", g.faker.Word)
	if err != nil {
		return nil, err
	}
	base := companyBase(company, g.title.String(filler))

	first, err := g.nonEmpty("first name", g.faker.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := g.nonEmpty("last name", g.faker.LastName)
	if err != nil {
		return nil, err
	}

	companyAddr, err := g.address(g.config.CompanyAddress2Chance)
	if err != nil {
		return nil, err
	}
	userAddr, err := g.address(g.config.UserAddress2Chance)
	if err != nil {
		return nil, err
	}

	return &Profile{
		CompanyName:    base,
		FirstName:      first,
		LastName:       last,
		SiteName:       g.siteName(base),
		Email:          g.email(first, last, base),
		Password:       g.password,
		CompanyAddress: companyAddr,
		CompanyPhone:   g.Phone(),
		UserAddress:    userAddr,
		UserPhone:      g.Phone(),
	}, nil
}

// companyBase replaces a name carrying a corporate suffix with its first
// word plus filler, so the suffix never reaches derived slugs
func companyBase(company, filler string) string {
	words := strings.Fields(strings.ReplaceAll(company, ",", ""))
	if len(words) == 0 {
		return filler
	}
	for _, w := range words {
		if corporateSuffixes[strings.ToLower(strings.Trim(w, "."))] {
			return words[0] + " " + filler
		}
	}
	return strings.Join(words, " ")
}

// siteName is the company slug plus three random characters, reduced to
// lowercase alphanumerics and at most 20 long
func (g *Generator) siteName(base string) string {
	name := alphanumeric(Slugify(base, 20) + g.randomSuffix(3))
	if len(name) > 20 {
		name = name[:20]
	}
	if name == "" {
		return fallbackSlug
	}
	return name
}

func (g *Generator) randomSuffix(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.faker.IntRange(0, len(alphabet)-1)]
	}
	return string(b)
}

func (g *Generator) email(first, last, base string) string {
	local := alphanumeric(Slugify(first, 0)) + "." + alphanumeric(Slugify(last, 0))
	domain := Slugify(base, 15) + g.faker.RandomString(topLevelDomains)
	return strings.ToLower(local + "@" + domain)
}

func (g *Generator) address(line2Chance float64) (Address, error) {
	street, err := g.nonEmpty("street", g.faker.Street)
	if err != nil {
		return Address{}, err
	}
	city, err := g.nonEmpty("city", g.faker.City)
	if err != nil {
		return Address{}, err
	}

	var line2 string
	if g.faker.Float64() < line2Chance {
		line2 = fmt.Sprintf("%s %d", g.faker.RandomString([]string{"Apt.", "Suite"}), g.faker.IntRange(100, 999))
	}

	r := regions[g.faker.IntRange(0, len(regions)-1)]
	return Address{
		Line1:  street,
		Line2:  line2,
		City:   city,
		Region: r.code,
		Zip:    fmt.Sprintf("%05d", g.faker.IntRange(r.zipMin, r.zipMax)),
	}, nil
}

// Phone returns a number formatted (AAA) BBB-CCCC with a real area code
func (g *Generator) Phone() string {
	return fmt.Sprintf("(%s) %03d-%04d",
		g.faker.RandomString(areaCodes),
		g.faker.IntRange(200, 999),
		g.faker.IntRange(1000, 9999),
	)
}

// Contact generates contact form data with a message of at most maxLen characters
func (g *Generator) Contact(maxLen int) Contact {
	var msg strings.Builder
	for msg.Len() < maxLen {
		if msg.Len() > 0 {
			msg.WriteByte(' ')
		}
		msg.WriteString(g.faker.HackerPhrase())
	}

	return Contact{
		Name:    g.faker.Name(),
		Email:   strings.ToLower(g.faker.Email()),
		Subject: g.title.String(g.faker.BS()),
		Message: truncateWords(msg.String(), maxLen),
	}
}

// truncateWords cuts s to at most maxLen bytes, backing off to a word boundary
func truncateWords(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

func (g *Generator) nonEmpty(field string, fn func() string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		if v := strings.TrimSpace(fn()); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", result.ErrDataGenerationExhausted, field)
}
