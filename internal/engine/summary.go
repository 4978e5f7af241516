package engine

import (
	"context"
	"sort"

	"github.com/runnerr0/dnslens/internal/errors"
	"github.com/runnerr0/dnslens/internal/storage"
)

// topDomainsLimit is the number of entries reported in TopDomains.
const topDomainsLimit = 5

// GroupCount pairs a group key with its number of events.
type GroupCount struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// LargestDomain is the domain with the greatest name length.
type LargestDomain struct {
	Domain           string  `json:"domain"`
	DomainNameLength float64 `json:"dns_domain_name_length"`
}

// StatsSummary holds every facet computed by Summarize. Averages are 0 and
// LargestDomain is nil when the store is empty.
type StatsSummary struct {
	TotalLogs                   int64          `json:"totalLogs"`
	ByPrediction                []GroupCount   `json:"byPrediction"`
	ByEventType                 []GroupCount   `json:"byEventType"`
	AverageDomainLength         float64        `json:"averageDomainLength"`
	AverageEntropy              float64        `json:"averageEntropy"`
	AverageSendingBytes         float64        `json:"averageSendingBytes"`
	AverageReceivingBytes       float64        `json:"averageReceivingBytes"`
	AverageTTL                  float64        `json:"averageTTL"`
	AverageVowelsConsonantRatio float64        `json:"averageVowelsConsonantRatio"`
	TopDomains                  []GroupCount   `json:"topDomains"`
	LargestDomain               *LargestDomain `json:"largestDomain"`
}

// counter counts keys and remembers the order each key was first seen.
type counter struct {
	counts map[string]int64
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int64)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// byKey returns every group sorted by key.
func (c *counter) byKey() []GroupCount {
	out := c.groups()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// top returns the n largest groups by count. Equal counts keep first-seen
// order.
func (c *counter) top(n int) []GroupCount {
	out := c.groups()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (c *counter) groups() []GroupCount {
	out := make([]GroupCount, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, GroupCount{ID: k, Count: c.counts[k]})
	}
	return out
}

// accumulator folds events into the running state for every facet.
type accumulator struct {
	total int64

	predictions *counter
	eventTypes  *counter
	domains     *counter

	sumDomainLength   float64
	sumEntropy        float64
	sumSendingBytes   float64
	sumReceivingBytes float64
	sumTTL            float64
	sumVowelRatio     float64

	largest *LargestDomain
}

func newAccumulator() *accumulator {
	return &accumulator{
		predictions: newCounter(),
		eventTypes:  newCounter(),
		domains:     newCounter(),
	}
}

func (a *accumulator) add(e *storage.EventRecord) error {
	a.total++
	a.predictions.add(string(e.Prediction))
	a.eventTypes.add(string(e.EventType))
	a.domains.add(e.Domain)

	a.sumDomainLength += e.DomainNameLength
	a.sumEntropy += e.CharacterEntropy
	a.sumSendingBytes += e.SendingBytes
	a.sumReceivingBytes += e.ReceivingBytes
	a.sumTTL += e.TTLMean
	a.sumVowelRatio += e.VowelsConsonantRatio

	if a.largest == nil || e.DomainNameLength > a.largest.DomainNameLength {
		a.largest = &LargestDomain{Domain: e.Domain, DomainNameLength: e.DomainNameLength}
	}
	return nil
}

func (a *accumulator) summary() *StatsSummary {
	s := &StatsSummary{
		TotalLogs:     a.total,
		ByPrediction:  a.predictions.byKey(),
		ByEventType:   a.eventTypes.byKey(),
		TopDomains:    a.domains.top(topDomainsLimit),
		LargestDomain: a.largest,
	}
	if a.total == 0 {
		return s
	}

	n := float64(a.total)
	s.AverageDomainLength = a.sumDomainLength / n
	s.AverageEntropy = a.sumEntropy / n
	s.AverageSendingBytes = a.sumSendingBytes / n
	s.AverageReceivingBytes = a.sumReceivingBytes / n
	s.AverageTTL = a.sumTTL / n
	s.AverageVowelsConsonantRatio = a.sumVowelRatio / n
	return s
}

// Summarize computes every facet over the whole collection in one scan.
func (e *Engine) Summarize(ctx context.Context) (*StatsSummary, error) {
	acc := newAccumulator()
	if err := e.store.ScanEvents(ctx, acc.add); err != nil {
		e.logger.Error("summarize scan failed", "error", err)
		return nil, errors.Wrap(err, errors.KindUnavailable, "summarize events")
	}

	s := acc.summary()
	e.logger.Debug("summarized events", "total", s.TotalLogs, "distinct_domains", len(acc.domains.order))
	return s, nil
}
