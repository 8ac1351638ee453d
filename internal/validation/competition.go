package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/joelkehle/idea-validation/internal/sources"
)

const (
	maxCompetitors  = 10
	maxDomains      = 3
	maxGaps         = 5
	competitionTerm = 3
)

var gapTemplates = []string{
	"Offer a simpler, lower-priced entry tier than %s",
	"Serve a niche audience that %s does not target",
	"Provide hands-on onboarding that %s lacks",
	"Build a community around the problem %s addresses",
	"Integrate with tools that %s users already rely on",
}

var openMarketGaps = []string{
	"Define the category early with a focused niche offer",
	"Compete on service quality and fast onboarding",
	"Publish educational content to own search demand before competitors arrive",
}

// CollectCompetition measures saturation from product listings, repository
// counts and domain availability. Each source fails soft to an empty result.
func (e *Engine) CollectCompetition(ctx context.Context, keywords []string) CompetitionSignal {
	log := signalLogger(e.log, SignalCompetition)
	query := strings.Join(keywords[:min(len(keywords), competitionTerm)], " ")
	sig := CompetitionSignal{
		Competitors:  []Competitor{},
		Repositories: []sources.Repository{},
		Domains:      []DomainStatus{},
	}

	if e.listings == nil {
		sig.Fallback = true
	} else if listings, err := e.listings.SearchProducts(ctx, query); err != nil {
		logSourceError(log.WithField("source", "listings"), err, "product listings unavailable")
		sig.Fallback = true
	} else {
		sort.SliceStable(listings, func(i, j int) bool { return listings[i].Votes > listings[j].Votes })
		sig.ListingCount = len(listings)
		for _, l := range listings[:min(len(listings), maxCompetitors)] {
			sig.Competitors = append(sig.Competitors, Competitor{Name: l.Name, Description: l.Tagline, URL: l.URL, Votes: l.Votes})
		}
	}

	if e.repos == nil {
		sig.Fallback = true
	} else if res, err := e.repos.SearchRepositories(ctx, query); err != nil {
		logSourceError(log.WithField("source", "repositories"), err, "repository search unavailable")
		sig.Fallback = true
	} else {
		sig.RepositoryCount = max(0, res.TotalCount)
		sig.Repositories = append(sig.Repositories, res.Items...)
	}

	for _, domain := range candidateDomains(keywords) {
		st := DomainStatus{Domain: domain}
		if e.domains != nil {
			ok, err := e.domains.Available(ctx, domain)
			if err != nil {
				logSourceError(log.WithField("domain", domain), err, "domain check failed")
			} else {
				st.Checked, st.Available = true, ok
			}
		}
		if !st.Checked {
			sig.Fallback = true
		}
		if st.Available {
			sig.DomainsAvailable++
		}
		sig.Domains = append(sig.Domains, st)
	}

	sig.Saturation = CompetitionSaturation(sig.ListingCount, sig.RepositoryCount, sig.DomainsAvailable)
	sig.Score = max(0, 100-sig.Saturation)
	sig.SaturationLevel = saturationLevel(sig.Saturation)
	sig.DifferentiationGaps = differentiationGaps(sig.Competitors)
	return sig
}

// CompetitionSaturation combines listing, repository and domain pressure into [0,100].
func CompetitionSaturation(listings, repos, domainsAvailable int) int {
	s := min(50, 2*max(0, listings)) + min(30, max(0, repos))
	if domainsAvailable == 0 {
		s += 20
	}
	return s
}

func saturationLevel(saturation int) string {
	switch {
	case saturation < 30:
		return "Low"
	case saturation < 60:
		return "Medium"
	default:
		return "High"
	}
}

func differentiationGaps(competitors []Competitor) []string {
	gaps := make([]string, 0, maxGaps)
	for i, c := range competitors {
		if len(gaps) == maxGaps {
			break
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		gaps = append(gaps, fmt.Sprintf(gapTemplates[i%len(gapTemplates)], name))
	}
	if len(gaps) == 0 {
		gaps = append(gaps, openMarketGaps...)
	}
	return gaps
}

// candidateDomains builds up to three .com/.io names from the leading keywords.
func candidateDomains(keywords []string) []string {
	var parts []string
	for _, kw := range keywords {
		if s := domainLabel(kw); s != "" {
			parts = append(parts, s)
		}
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return nil
	}
	combined := strings.Join(parts, "")
	out := []string{combined + ".com", combined + ".io", parts[0] + "app.com"}
	seen := map[string]struct{}{}
	uniq := out[:0]
	for _, d := range out {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
	}
	return uniq[:min(len(uniq), maxDomains)]
}

func domainLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
