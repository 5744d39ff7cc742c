// Package keywords matches free text against the gaming and affiliate
// marketing lexicon used to flag messages and profiles.
package keywords

import "strings"

// Lexicon is the ordered term list matched against message text. It mixes
// English and Russian terms; matches are reported in this order.
var Lexicon = []string{
	// Core gaming terms
	"igaming",
	"casino",
	"bet",
	"betting",
	"poker",
	"slots",
	"gambling",
	"game",
	"games",
	"jackpot",
	"lottery",
	"roulette",
	"payments",
	"payment",
	// Cryptocurrency and trading
	"crypto",
	"bitcoin",
	"trading",
	"forex",
	// Affiliate marketing
	"affiliate",
	"партнер",
	// Russian gaming terms
	"казино",
	"ставки",
	"игры",
	"азарт",
	"криптовалюта",
	"трейдинг",
	"партнёрка",
	"реферал",
	"гемблинг",
	"букмекер",
	// English gaming terms
	"bookmaker",
	"спорт",
	"sport",
	"прогноз",
	"прогнозы",
	"капер",
	"capper",
	"tipster",
	"бинанс",
	"binance",
	"сигнал",
	// Brand and platform names
	"spin",
	"spinz",
	"vegas",
	"roll",
	"highroll",
	"betwin",
	"betwinner",
	"melbet",
	"1xbet",
	"1xcasino",
	// Business terms
	"cpa",
	"revshare",
	"traffic",
	"трафик",
	"arbitrage",
	"арбитраж",
	"sportsbook",
	"offers",
	"офферы",
	"офера",
	"manager",
	"менеджер",
	"leads",
	"леадс",
	"конверт",
	"conversion",
	"mediabuy",
	"медиабай",
	"webmaster",
	"вебмастер",
	"network",
	"сеть",
	"hybrid",
	"гибрид",
	"landing",
	"лендинг",
	"campaign",
	"кампании",
	"media",
	"медиа",
	"brand",
	"бренд",
	"investment",
	"инвест",
	"live",
	"deposit",
	"депозит",
	"bingo",
	"dice",
	"кости",
	"cards",
	"карты",
	"table",
	"столы",
	"wheel",
	"reel",
	"bizdev",
	"business development",
	"partners",
	"партнёры",
	"geo",
	"гео",
	"spend",
	"roi",
	"cpi",
	"cpl",
	"crg",
	"tier",
	"тир",
	"quality",
	"качество",
	"volume",
	"объем",
	"stable",
	"стабильный",
	"exclusive",
	"эксклюзив",
	"direct",
	"прямой",
	"advertiser",
	"рекламодатель",
	"performance",
	"перформанс",
	"profitable",
	"прибыльный",
	"scale",
	"масштаб",
	"budgets",
	"бюджеты",
}

// Matcher reports which lexicon terms appear in a text. Matching is plain
// case-insensitive substring containment; no stemming and no Unicode
// normalization beyond lowercasing, so results stay comparable with
// previously recorded exports.
type Matcher struct {
	terms []string
}

// NewMatcher builds a matcher over the given terms, preserving their order.
func NewMatcher(terms []string) *Matcher {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &Matcher{terms: lowered}
}

// Default returns a matcher over the built-in Lexicon.
func Default() *Matcher {
	return NewMatcher(Lexicon)
}

// Match returns the terms contained in text, in lexicon order. An empty
// text yields no matches.
func (m *Matcher) Match(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, t := range m.terms {
		if strings.Contains(lower, t) {
			found = append(found, t)
		}
	}
	return found
}

// Summary returns the matched terms joined by ", ", or "" when none match.
func (m *Matcher) Summary(text string) string {
	return strings.Join(m.Match(text), ", ")
}
