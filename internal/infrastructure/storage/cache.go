package storage

import (
	"sync"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// chargeCache is a read-through cache over the per-charge record loads.
// It is owned by the persistence layer: the merge commit (and any write
// touching a charge) invalidates the affected ids, so the scoring
// engine never has to think about staleness.
type chargeCache struct {
	mu   sync.RWMutex
	txs  map[string][]charge.Transaction
	docs map[string][]charge.Document
}

func newChargeCache() *chargeCache {
	return &chargeCache{
		txs:  make(map[string][]charge.Transaction),
		docs: make(map[string][]charge.Document),
	}
}

func (c *chargeCache) getTransactions(chargeID string) ([]charge.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	txs, ok := c.txs[chargeID]
	return txs, ok
}

func (c *chargeCache) setTransactions(chargeID string, txs []charge.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[chargeID] = txs
}

func (c *chargeCache) getDocuments(chargeID string) ([]charge.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs, ok := c.docs[chargeID]
	return docs, ok
}

func (c *chargeCache) setDocuments(chargeID string, docs []charge.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[chargeID] = docs
}

// invalidate drops every cached record set for the given charge ids.
func (c *chargeCache) invalidate(chargeIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range chargeIDs {
		delete(c.txs, id)
		delete(c.docs, id)
	}
}
