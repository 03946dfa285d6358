package models

import (
	"encoding/json"
	"fmt"
)

// DefaultBaseCurrency is used when a request does not name one.
const DefaultBaseCurrency = "EGP"

// Account is a bank account or cash wallet the user owns.
type Account struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// CreditCard is a card that can be the source of an expense.
type CreditCard struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Loan is an outstanding loan that obligation payments can reference.
type Loan struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Installment is an installment plan that obligation payments can reference.
type Installment struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Category is a user-defined expense or income category.
type Category struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Type          TransactionType `json:"type" yaml:"type"`
	Subcategories []Subcategory   `json:"subcategories" yaml:"subcategories"`
}

// UnmarshalJSON accepts the older "categoryId" key as well as "id".
func (c *Category) UnmarshalJSON(data []byte) error {
	type plain Category
	var raw struct {
		plain
		CategoryID string `json:"categoryId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Category(raw.plain)
	if c.ID == "" {
		c.ID = raw.CategoryID
	}
	return nil
}

// EntityCatalog is the caller-supplied reference data a request is validated against.
// It is read-only for the lifetime of a request and never cached across requests.
type EntityCatalog struct {
	Accounts         []Account     `json:"accounts" yaml:"accounts"`
	CreditCards      []CreditCard  `json:"creditCards" yaml:"credit_cards"`
	Loans            []Loan        `json:"loans" yaml:"loans"`
	Installments     []Installment `json:"installments" yaml:"installments"`
	Categories       []Category    `json:"categories" yaml:"categories"`
	DefaultAccountID string        `json:"defaultAccountId,omitempty" yaml:"default_account_id"`
	BaseCurrency     string        `json:"baseCurrency" yaml:"base_currency"`
}

// UnmarshalJSON accepts the key aliases older clients send ("assets", "cards",
// "defaultAccount") and fills in defaults.
func (c *EntityCatalog) UnmarshalJSON(data []byte) error {
	type plain EntityCatalog
	var raw struct {
		plain
		Assets         []Account    `json:"assets"`
		Cards          []CreditCard `json:"cards"`
		DefaultAccount string       `json:"defaultAccount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = EntityCatalog(raw.plain)
	if len(c.Accounts) == 0 {
		c.Accounts = raw.Assets
	}
	if len(c.CreditCards) == 0 {
		c.CreditCards = raw.Cards
	}
	if c.DefaultAccountID == "" {
		c.DefaultAccountID = raw.DefaultAccount
	}
	c.ApplyDefaults()
	return nil
}

// ApplyDefaults replaces nil collections with empty ones and sets the base currency.
func (c *EntityCatalog) ApplyDefaults() {
	if c.Accounts == nil {
		c.Accounts = []Account{}
	}
	if c.CreditCards == nil {
		c.CreditCards = []CreditCard{}
	}
	if c.Loans == nil {
		c.Loans = []Loan{}
	}
	if c.Installments == nil {
		c.Installments = []Installment{}
	}
	if c.Categories == nil {
		c.Categories = []Category{}
	}
	if c.BaseCurrency == "" {
		c.BaseCurrency = DefaultBaseCurrency
	}
}

// Validate checks that ids are non-empty and unique
// per entity type, subcategory ids are unique across the whole catalog and the
// default account, when set, is one of the accounts. A category without a
// type is accepted; a transfer category is not.
func (c *EntityCatalog) Validate() error {
	if err := uniqueIDs("accounts", len(c.Accounts), func(i int) string { return c.Accounts[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("creditCards", len(c.CreditCards), func(i int) string { return c.CreditCards[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("loans", len(c.Loans), func(i int) string { return c.Loans[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("installments", len(c.Installments), func(i int) string { return c.Installments[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("categories", len(c.Categories), func(i int) string { return c.Categories[i].ID }); err != nil {
		return err
	}

	var subs []string
	for _, cat := range c.Categories {
		switch cat.Type {
		case TypeExpense, TypeIncome, TypeNone:
		default:
			return fmt.Errorf("category '%s' has invalid type '%s'", cat.ID, cat.Type)
		}
		for _, sub := range cat.Subcategories {
			subs = append(subs, sub.ID)
		}
	}
	if err := uniqueIDs("subcategories", len(subs), func(i int) string { return subs[i] }); err != nil {
		return err
	}

	if c.DefaultAccountID != "" && !c.HasAccount(c.DefaultAccountID) {
		return fmt.Errorf("defaultAccountId '%s' is not one of the accounts", c.DefaultAccountID)
	}
	return nil
}

func uniqueIDs(kind string, n int, id func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == "" {
			return fmt.Errorf("%s[%d] has an empty id", kind, i)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%s contains duplicate id '%s'", kind, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// ValidIDs returns the union of every identifier a record may reference.
func (c *EntityCatalog) ValidIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	if c == nil {
		return ids
	}
	for _, a := range c.Accounts {
		ids[a.ID] = struct{}{}
	}
	for _, cc := range c.CreditCards {
		ids[cc.ID] = struct{}{}
	}
	for _, l := range c.Loans {
		ids[l.ID] = struct{}{}
	}
	for _, in := range c.Installments {
		ids[in.ID] = struct{}{}
	}
	for _, cat := range c.Categories {
		ids[cat.ID] = struct{}{}
		for _, sub := range cat.Subcategories {
			ids[sub.ID] = struct{}{}
		}
	}
	return ids
}

// HasAccount reports whether id is one of the catalog's accounts.
func (c *EntityCatalog) HasAccount(id string) bool {
	if c == nil || id == "" {
		return false
	}
	for _, a := range c.Accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

// IsCreditCard reports whether id is one of the catalog's credit cards.
func (c *EntityCatalog) IsCreditCard(id string) bool {
	if c == nil || id == "" {
		return false
	}
	for _, cc := range c.CreditCards {
		if cc.ID == id {
			return true
		}
	}
	return false
}

// DefaultAccount returns the default account id, or "" when there is none.
func (c *EntityCatalog) DefaultAccount() string {
	if c == nil {
		return ""
	}
	return c.DefaultAccountID
}
