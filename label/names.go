package label

// Names maps the English currency names printed by central bank pages to symbols
var Names = map[string]Symbol{
	"US Dollar":             USD,
	"Euro":                  EUR,
	"British Pound":         GBP,
	"Pound Sterling":        GBP,
	"Chinese Yuan":          CNY,
	"Chinese Yuan Renminbi": CNY,
	"Japanese Yen":          JPY,
	"Russian Ruble":         RUB,
	"UAE Dirham":            AED,
}
