package settings

import "context"

// SiteSettings is the site configuration served by the admin API. The
// storefront passes it through without interpreting nested fields.
type SiteSettings struct {
	Company     Company             `json:"company"`
	Hero        Hero                `json:"hero"`
	Stats       []string            `json:"stats"`
	Cooperation Cooperation         `json:"cooperation"`
	Contacts    Contacts            `json:"contacts"`
	SEO         SEO                 `json:"seo"`
	Pages       map[string]PageCopy `json:"pages"`
}

// Company holds the legal and display names of the business.
type Company struct {
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	Founded     string `json:"founded"`
}

// Hero is the landing page headline block.
type Hero struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

// Cooperation is the copy of the partnership page.
type Cooperation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
}

// Contacts lists the ways to reach the company.
type Contacts struct {
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	WorkingHours string `json:"workingHours"`
}

// SEO holds site-wide search metadata.
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// PageCopy overrides the title and subtitle of a single page.
type PageCopy struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Fetcher retrieves the current settings from the remote source.
type Fetcher interface {
	FetchSettings(ctx context.Context) (*SiteSettings, error)
}

// Default returns the built-in settings used until a remote fetch succeeds.
func Default() SiteSettings {
	return SiteSettings{
		Company: Company{
			Name:        "Marine Tech",
			FullName:    "Marine Tech Equipment Ltd.",
			Description: "Supply, installation and maintenance of marine equipment",
			Founded:     "2008",
		},
		Hero: Hero{
			Title:       "Marine equipment you can rely on",
			Subtitle:    "Navigation, safety and deck equipment for commercial and private vessels",
			Description: "We supply certified equipment and provide service in port and at sea.",
		},
		Stats: []string{
			"15+ years on the market",
			"500+ vessels serviced",
			"24/7 technical support",
		},
		Cooperation: Cooperation{
			Title:       "Cooperation",
			Description: "We work with shipowners, shipyards and crewing companies.",
			Benefits: []string{
				"Dealer pricing for regular partners",
				"Certified installation",
				"Warranty and post-warranty service",
			},
		},
		Contacts: Contacts{
			Phone:        "+1 (000) 000-00-00",
			Email:        "info@marine-tech.example",
			Address:      "Port area, Berth 7",
			WorkingHours: "Mon-Fri 9:00-18:00",
		},
		SEO: SEO{
			Title:       "Marine Tech | Marine equipment and service",
			Description: "Marine equipment sales, installation and maintenance.",
			Keywords:    "marine equipment, ship service, navigation, safety equipment",
		},
		Pages: map[string]PageCopy{
			"catalog":     {Title: "Catalog", Subtitle: "Equipment in stock and on order"},
			"services":    {Title: "Services", Subtitle: "Installation, repair and maintenance"},
			"cooperation": {Title: "Cooperation", Subtitle: "Terms for partners"},
			"contacts":    {Title: "Contacts", Subtitle: "How to reach us"},
		},
	}
}
