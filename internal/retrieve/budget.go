// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package retrieve

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many tokens a string of context costs, so
// context assembly can stop accumulating chunks once a budget is reached.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts tokens with OpenAI's cl100k_base encoding, the
// encoding shared by GPT-4-class and (as an estimate) Claude-class models.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding. If the encoding can't be
// loaded (e.g. no network access to fetch its vocabulary file in an
// offline environment), it falls back to whitespace word counting rather
// than failing context assembly outright.
func NewTokenCounter() TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return wordCountCounter{}
	}
	return &tiktokenCounter{encoding: enc}
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// wordCountCounter is the fallback counter: whitespace-delimited word count,
// a coarse but dependency-free approximation of token count.
type wordCountCounter struct{}

func (wordCountCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// budgetedBuilder accumulates context chunks until the token budget is
// reached, then stops. It never truncates a chunk mid-text; a chunk that
// would overflow the budget is simply the last one added if it's the first
// chunk, otherwise it is dropped.
type budgetedBuilder struct {
	counter  TokenCounter
	budget   int
	spent    int
	sb       strings.Builder
	addedOne bool
}

func newBudgetedBuilder(counter TokenCounter, budget int) *budgetedBuilder {
	return &budgetedBuilder{counter: counter, budget: budget}
}

// Add appends text if it fits within budget; it always accepts the first
// chunk even if that single chunk exceeds the budget, so a too-small
// budget never yields empty context entirely.
func (b *budgetedBuilder) Add(text string) bool {
	cost := b.counter.Count(text)
	if b.addedOne && b.spent+cost > b.budget {
		return false
	}
	if b.sb.Len() > 0 {
		b.sb.WriteString("\n\n")
	}
	b.sb.WriteString(text)
	b.spent += cost
	b.addedOne = true
	return true
}

func (b *budgetedBuilder) String() string {
	return b.sb.String()
}
