package mockapi

import (
	"fmt"
	"strings"
)

// Fixture records deliberately carry the kinds of dirt the normalizer has
// to clean: empty strings, "null"/"NA" spellings in mixed case, and
// whitespace-only values.

var firstNames = []string{
	"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald",
	"Margaret", "Dennis", "Ken", "Radia", "Frances", "Tony",
}

var lastNames = []string{
	"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth",
	"Hamilton", "Ritchie", "Thompson", "Perlman", "Allen", "Hoare",
}

var companies = []string{
	"Dunmore Paper", "Halpert & Sons", "Vance Refrigeration",
	"Schrute Farms", "Stamford Logistics", "Utica Office Supply",
}

var repNames = []string{
	"Jim Halpert", "Dwight Schrute", "Phyllis Vance", "Stanley Hudson",
}

var dirt = []string{"", "null", "NULL", "NA", "N/A", "  "}

func seedPeople() []map[string]any {
	people := make([]map[string]any, 0, 37)
	for i := 0; i < 37; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i*5)%len(lastNames)]
		rec := map[string]any{
			"id":         fmt.Sprintf("p%03d", i+1),
			"first_name": first,
			"last_name":  last,
			"email":      strings.ToLower(fmt.Sprintf("%s.%s@example.com", first, last)),
			"address":    fmt.Sprintf("%d Slough Avenue", 100+i),
		}
		// Every fourth record loses a field to sentinel dirt.
		if i%4 == 3 {
			rec["address"] = dirt[i%len(dirt)]
		}
		if i%7 == 6 {
			rec["email"] = dirt[(i+2)%len(dirt)]
		}
		people = append(people, rec)
	}
	return people
}

func seedClients() []map[string]any {
	clients := make([]map[string]any, 0, 23)
	for i := 0; i < 23; i++ {
		company := companies[i%len(companies)]
		contact := firstNames[(i*7)%len(firstNames)] + " " + lastNames[(i*3)%len(lastNames)]
		rec := map[string]any{
			"id":        fmt.Sprintf("c%03d", i+1),
			"company":   company,
			"name":      contact,
			"address":   fmt.Sprintf("%d Beet Street", 10+i),
			"email":     fmt.Sprintf("contact%d@%s.example.com", i+1, slug(company)),
			"phone":     fmt.Sprintf("555-01%02d", i),
			"sales_rep": repNames[i%len(repNames)],
		}
		if i%5 == 4 {
			rec["sales_rep"] = dirt[i%len(dirt)]
		}
		if i%6 == 5 {
			rec["phone"] = dirt[(i+1)%len(dirt)]
		}
		clients = append(clients, rec)
	}
	return clients
}

// slug keeps letters only, lowercased, for fixture email domains.
func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= 'a' && r <= 'z':
			return r
		}
		return -1
	}, s)
}
