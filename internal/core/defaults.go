package core

import "github.com/shopspring/decimal"

// Seed data for a fresh install, matching what the app bootstraps when
// no snapshot exists yet.

func DefaultCategories() []Category {
	return []Category{
		{ID: "c1", Name: "Продукти", Type: Expense, Icon: "shopping-cart", Color: "#ef4444", MonthlyBudget: decimal.New(8000, 0)},
		{ID: "c2", Name: "Транспорт", Type: Expense, Icon: "bus", Color: "#f97316", MonthlyBudget: decimal.New(2000, 0)},
		{ID: "c3", Name: "Житло", Type: Expense, Icon: "home", Color: "#8b5cf6", MonthlyBudget: decimal.New(3000, 0)},
		{ID: "c4", Name: "Розваги", Type: Expense, Icon: "film", Color: "#ec4899", MonthlyBudget: decimal.New(1500, 0)},
		{ID: "c5", Name: "Здоров'я", Type: Expense, Icon: "heart", Color: "#14b8a6", MonthlyBudget: decimal.New(1000, 0)},
		{ID: "c6", Name: "Зарплата", Type: Income, Icon: "briefcase", Color: "#10b981", MonthlyBudget: decimal.New(30000, 0)},
		{ID: "c7", Name: "Подарунки", Type: Income, Icon: "gift", Color: "#3b82f6", MonthlyBudget: decimal.Zero},
		{ID: "c8", Name: "Інше", Type: Expense, Icon: "more-horizontal", Color: "#6b7280", MonthlyBudget: decimal.New(500, 0)},
	}
}

func DefaultAccounts() []Account {
	one := decimal.New(1, 0)
	return []Account{
		{ID: "a1", Name: "Готівка", Currency: BaseCurrency, Color: "#10b981", Icon: "wallet", Type: Current, CurrentRate: one},
		{ID: "a2", Name: "ПриватБанк", Currency: BaseCurrency, Color: "#22c55e", Icon: "credit-card", Type: Current, CurrentRate: one},
		{ID: "a3", Name: "Mono White", Currency: BaseCurrency, Color: "#000000", Icon: "credit-card", Type: Current, CurrentRate: one},
		{ID: "a4", Name: "Готівка USD", Currency: "USD", Color: "#16a34a", Icon: "banknote", Type: Savings, CurrentRate: decimal.NewFromFloat(41.5)},
	}
}

func DefaultRates() RateTable {
	return RateTable{
		"USD":        decimal.NewFromFloat(41.5),
		"EUR":        decimal.NewFromFloat(44.0),
		BaseCurrency: decimal.New(1, 0),
	}
}

func DefaultSettings() Settings {
	return Settings{NumberFormat: "decimal", Theme: "light"}
}

// DefaultSnapshot is the initial store for a first run.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Accounts:     DefaultAccounts(),
		Categories:   DefaultCategories(),
		Transactions: nil,
		Rates:        DefaultRates(),
		Settings:     DefaultSettings(),
	}
}
