package finance

import "github.com/shopspring/decimal"

// Presentation metadata. None of this feeds the consistency gate; it exists
// so every screen resolves category styling and severity the same way.

type CategoryStyle struct {
	Icon  string
	Color string
}

var goalCategoryStyles = map[string]CategoryStyle{
	"Vacation":    {Icon: "fa-plane", Color: "#2196F3"},
	"Savings":     {Icon: "fa-shield-alt", Color: "#4CAF50"},
	"Vehicle":     {Icon: "fa-car", Color: "#FF9800"},
	"Health":      {Icon: "fa-heartbeat", Color: "#E91E63"},
	"Education":   {Icon: "fa-graduation-cap", Color: "#673AB7"},
	"Home":        {Icon: "fa-home", Color: "#009688"},
	"Investments": {Icon: "fa-chart-line", Color: "#3F51B5"},
	"Electronics": {Icon: "fa-laptop", Color: "#00BCD4"},
}

var defaultCategoryStyle = CategoryStyle{Icon: "fa-globe", Color: "#607D8B"}

func StyleForCategory(category string) CategoryStyle {
	if style, ok := goalCategoryStyles[category]; ok {
		return style
	}
	return defaultCategoryStyle
}

type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var (
	warningThreshold  = decimal.NewFromInt(75)
	criticalThreshold = decimal.NewFromInt(90)
)

func ProgressSeverity(progressPercentage decimal.Decimal) Severity {
	switch {
	case progressPercentage.GreaterThanOrEqual(criticalThreshold):
		return SeverityCritical
	case progressPercentage.GreaterThanOrEqual(warningThreshold):
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

func ProgressColor(progressPercentage decimal.Decimal) string {
	switch ProgressSeverity(progressPercentage) {
	case SeverityCritical:
		return "#f44336"
	case SeverityWarning:
		return "#ff9800"
	default:
		return "#4caf50"
	}
}
