package extract

// categoryEntry maps a lowercase token to a category/subcategory pair. The
// tables are ordered slices, not maps: lookup order is part of the contract
// (more specific tokens must win, e.g. "amazon prime" before "amazon").
type categoryEntry struct {
	Token       string
	Category    string
	Subcategory string
}

// defaultMerchantCategories is the curated merchant-name table, consulted by
// substring match against the lowercase merchant name.
var defaultMerchantCategories = []categoryEntry{
	// Food & dining
	{"swiggy", "Food", "Food Delivery"},
	{"zomato", "Food", "Food Delivery"},
	{"dominos", "Food", "Restaurants"},
	{"pizza hut", "Food", "Restaurants"},
	{"mcdonalds", "Food", "Restaurants"},
	{"kfc", "Food", "Restaurants"},
	{"starbucks", "Food", "Cafes"},
	{"cafe coffee day", "Food", "Cafes"},
	{"bigbasket", "Food", "Groceries"},
	{"blinkit", "Food", "Groceries"},
	{"zepto", "Food", "Groceries"},
	{"dunzo", "Food", "Groceries"},
	{"instamart", "Food", "Groceries"},
	// Transport
	{"uber", "Transport", "Cab"},
	{"ola", "Transport", "Cab"},
	{"rapido", "Transport", "Bike Taxi"},
	{"irctc", "Transport", "Train"},
	{"indigo", "Transport", "Flight"},
	{"air india", "Transport", "Flight"},
	{"spicejet", "Transport", "Flight"},
	{"redbus", "Transport", "Bus"},
	{"yulu", "Transport", "Bike Rental"},
	// Shopping
	{"amazon prime", "Entertainment", "Subscriptions"},
	{"amazon", "Shopping", "E-Commerce"},
	{"flipkart", "Shopping", "E-Commerce"},
	{"myntra", "Shopping", "Fashion"},
	{"ajio", "Shopping", "Fashion"},
	{"nykaa", "Shopping", "Beauty"},
	{"meesho", "Shopping", "E-Commerce"},
	{"snapdeal", "Shopping", "E-Commerce"},
	{"croma", "Shopping", "Electronics"},
	{"reliance digital", "Shopping", "Electronics"},
	// Bills & utilities
	{"jio", "Bills & Utilities", "Mobile Recharge"},
	{"airtel", "Bills & Utilities", "Mobile Recharge"},
	{"vi ", "Bills & Utilities", "Mobile Recharge"},
	{"bsnl", "Bills & Utilities", "Mobile Recharge"},
	{"bescom", "Bills & Utilities", "Electricity"},
	{"tata power", "Bills & Utilities", "Electricity"},
	{"adani electricity", "Bills & Utilities", "Electricity"},
	{"msedcl", "Bills & Utilities", "Electricity"},
	{"mahadiscom", "Bills & Utilities", "Electricity"},
	{"mahanagar gas", "Bills & Utilities", "Gas"},
	{"indraprastha gas", "Bills & Utilities", "Gas"},
	{"piped gas", "Bills & Utilities", "Gas"},
	// Entertainment
	{"netflix", "Entertainment", "Subscriptions"},
	{"hotstar", "Entertainment", "Subscriptions"},
	{"disney", "Entertainment", "Subscriptions"},
	{"spotify", "Entertainment", "Subscriptions"},
	{"youtube", "Entertainment", "Subscriptions"},
	{"bookmyshow", "Entertainment", "Movies & Shows"},
	{"pvr", "Entertainment", "Movies & Shows"},
	{"inox", "Entertainment", "Movies & Shows"},
	// Health
	{"apollo", "Medical", "Hospital"},
	{"fortis", "Medical", "Hospital"},
	{"manipal", "Medical", "Hospital"},
	{"practo", "Medical", "Doctor Consultation"},
	{"medplus", "Medical", "Pharmacy"},
	{"netmeds", "Medical", "Pharmacy"},
	{"1mg", "Medical", "Pharmacy"},
	{"pharmeasy", "Medical", "Pharmacy"},
	// Investment
	{"zerodha", "Investment", "Stocks & MF"},
	{"groww", "Investment", "Stocks & MF"},
	{"upstox", "Investment", "Stocks & MF"},
	{"paytm money", "Investment", "Stocks & MF"},
	{"coin", "Investment", "Stocks & MF"},
	{"sip", "Investment", "Mutual Fund SIP"},
	{"nps", "Investment", "NPS"},
	{"ppf", "Investment", "PPF"},
	// Housing
	{"rent", "Housing", "Rent"},
	{"maintenance", "Housing", "Society Maintenance"},
	{"society", "Housing", "Society Maintenance"},
	{"housing", "Housing", "Rent"},
	// ATM / cash
	{"atm", "Cash", "ATM Withdrawal"},
	{"cash withdrawal", "Cash", "ATM Withdrawal"},
}

// defaultKeywordCategories is the generic keyword fallback, scanned first
// against the merchant name and then against the full message text.
var defaultKeywordCategories = []categoryEntry{
	{"hotel", "Travel", "Hotels"},
	{"inn", "Travel", "Hotels"},
	{"resort", "Travel", "Hotels"},
	{"hospital", "Medical", "Hospital"},
	{"clinic", "Medical", "Doctor Consultation"},
	{"pharmacy", "Medical", "Pharmacy"},
	{"medical", "Medical", "Pharmacy"},
	{"school", "Education", "School Fees"},
	{"college", "Education", "College Fees"},
	{"university", "Education", "College Fees"},
	{"insurance", "Bills & Utilities", "Insurance"},
	{"loan", "Bills & Utilities", "Loan EMI"},
	{"emi", "Bills & Utilities", "Loan EMI"},
	{"petrol", "Transport", "Fuel"},
	{"fuel", "Transport", "Fuel"},
	{"diesel", "Transport", "Fuel"},
	{"electricity", "Bills & Utilities", "Electricity"},
	{"broadband", "Bills & Utilities", "Internet"},
	{"internet", "Bills & Utilities", "Internet"},
	{"wifi", "Bills & Utilities", "Internet"},
	{"gym", "Personal Care", "Fitness"},
	{"fitness", "Personal Care", "Fitness"},
	{"salon", "Personal Care", "Grooming"},
	{"grocery", "Food", "Groceries"},
	{"supermarket", "Food", "Groceries"},
	{"mart", "Food", "Groceries"},
}

// CategoryContext renders the category taxonomy as prompt lines for the AI
// collaborator, one "Category: [Sub1, Sub2]" entry per category.
func CategoryContext() []string {
	type group struct {
		name string
		subs []string
	}
	var groups []group
	index := map[string]int{}
	add := func(e categoryEntry) {
		i, ok := index[e.Category]
		if !ok {
			i = len(groups)
			index[e.Category] = i
			groups = append(groups, group{name: e.Category})
		}
		for _, s := range groups[i].subs {
			if s == e.Subcategory {
				return
			}
		}
		groups[i].subs = append(groups[i].subs, e.Subcategory)
	}
	for _, e := range defaultMerchantCategories {
		add(e)
	}
	for _, e := range defaultKeywordCategories {
		add(e)
	}

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		line := g.name + ": ["
		for i, s := range g.subs {
			if i > 0 {
				line += ", "
			}
			line += s
		}
		lines = append(lines, line+"]")
	}
	return lines
}
