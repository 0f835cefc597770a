package config

import (
	"fmt"
	"strings"
)

type denylistGroup struct {
	name    string
	domains []string
}

// Sensitive domains, grouped so a config can opt into a subset.
var denylistGroups = []denylistGroup{
	{"banking", []string{
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"citi.com",
		"usbank.com",
		"capitalone.com",
		"ally.com",
		"schwab.com",
		"fidelity.com",
		"vanguard.com",
		"tdameritrade.com",
		"etrade.com",
		"robinhood.com",
		"paypal.com",
		"venmo.com",
		"zelle.com",
		"mint.com",
		"personalcapital.com",
		"navyfederal.org",
		"pnc.com",
		"regions.com",
		"suntrust.com",
		"bbt.com",
		"truist.com",
	}},
	{"passwords", []string{
		"1password.com",
		"lastpass.com",
		"bitwarden.com",
		"dashlane.com",
		"keepersecurity.com",
		"nordpass.com",
	}},
	{"identity", []string{
		"accounts.google.com",
		"login.microsoftonline.com",
		"login.live.com",
		"auth0.com",
		"okta.com",
		"onelogin.com",
		"duo.com",
	}},
	{"health", []string{
		"mychart.com",
		"mychartsso.com",
		"patient.myhealth.com",
		"portal.anthem.com",
		"member.cigna.com",
		"member.aetna.com",
		"member.uhc.com",
		"kp.org",
		"healthcare.gov",
		"medicare.gov",
	}},
	{"government", []string{
		"irs.gov",
		"ssa.gov",
		"login.gov",
		"id.me",
		"turbotax.intuit.com",
		"hrblock.com",
	}},
	{"insurance", []string{
		"geico.com",
		"progressive.com",
		"statefarm.com",
		"allstate.com",
		"usaa.com",
	}},
	{"crypto", []string{
		"coinbase.com",
		"binance.com",
		"kraken.com",
		"gemini.com",
	}},
	{"payroll", []string{
		"myworkday.com",
		"adp.com",
		"gusto.com",
		"paychex.com",
	}},
	{"mail", []string{
		"mail.google.com",
		"outlook.live.com",
		"mail.proton.me",
	}},
}

// DenylistCategories lists the built-in category names in order.
func DenylistCategories() []string {
	names := make([]string, len(denylistGroups))
	for i, g := range denylistGroups {
		names[i] = g.name
	}
	return names
}

// DefaultDenylistDomains returns every built-in sensitive domain.
// Subdomains of a listed domain match too.
func DefaultDenylistDomains() []string {
	var out []string
	for _, g := range denylistGroups {
		out = append(out, g.domains...)
	}
	return out
}

// DenylistDomains returns the domains of the named categories. An empty
// list selects all of them.
func DenylistDomains(categories []string) ([]string, error) {
	if len(categories) == 0 {
		return DefaultDenylistDomains(), nil
	}
	var out []string
	for _, name := range categories {
		g, ok := findDenylistGroup(name)
		if !ok {
			return nil, fmt.Errorf("unknown denylist category %q (known: %s)", name, strings.Join(DenylistCategories(), ", "))
		}
		out = append(out, g.domains...)
	}
	return out, nil
}

func findDenylistGroup(name string) (denylistGroup, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range denylistGroups {
		if g.name == name {
			return g, true
		}
	}
	return denylistGroup{}, false
}
