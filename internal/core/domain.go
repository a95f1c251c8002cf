package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

type (
	// Kind distinguishes the two transaction variants.
	Kind string

	Date struct {
		time.Time
	}

	// Transaction is a single dated, categorized monetary record.
	Transaction struct {
		ID          uuid.UUID       `json:"id"`
		UserID      uuid.UUID       `json:"user_id"`
		Kind        Kind            `json:"kind"`
		Title       string          `json:"title"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	User struct {
		ID           uuid.UUID
		Email        string
		PasswordHash []byte
		CreatedAt    time.Time
	}

	Profile struct {
		UserID    uuid.UUID `json:"id"`
		FirstName string    `json:"first_name"`
		LastName  string    `json:"last_name"`
		Email     string    `json:"email"`
		AvatarURL string    `json:"avatar_url,omitempty"`
	}

	Session struct {
		ID        uuid.UUID
		UserID    uuid.UUID
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyTitle       = errors.New("empty title")
	ErrTitleTooLong     = errors.New("title too long (max 200 characters)")
	ErrDescTooLong      = errors.New("description too long (max 1000 characters)")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingUser      = errors.New("missing user")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("new passwords do not match")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ParseKind accepts "expense"/"expenses" and "income"/"incomes".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses":
		return KindExpense, nil
	case "income", "incomes":
		return KindIncome, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Collection is the store collection holding transactions of this kind.
func (k Kind) Collection() string {
	if k == KindIncome {
		return "income"
	}
	return "expenses"
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.UserID == uuid.Nil {
		return ErrMissingUser
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidCategory(t.Kind, t.Category) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidCategory, t.Category, t.Kind)
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescTooLong
	}
	return t.Date.Validate()
}

// DisplayName joins first and last name.
func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return ErrEmptyName
	}
	if !ValidEmail(p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePasswordChange applies the profile page rules: the new password
// must match its confirmation and be at least 8 characters.
func ValidatePasswordChange(newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	return ValidatePassword(newPassword)
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidEmail performs a light structural check.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\r\n")
}

// Active reports whether the session is unexpired at now.
func (s Session) Active(now time.Time) bool {
	return s.ID != uuid.Nil && now.Before(s.ExpiresAt)
}
