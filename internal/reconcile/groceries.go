package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/state"
)

// Groceries owns every mutation of the grocery collection.
type Groceries struct {
	base
	remote api.GroceryStore
	items  *state.Collection[model.GroceryItem]
}

// NewGroceries builds a grocery reconciler. remote and items are required.
func NewGroceries(remote api.GroceryStore, items *state.Collection[model.GroceryItem], opts Options) (*Groceries, error) {
	if remote == nil {
		return nil, fmt.Errorf("grocery reconciler: remote is required")
	}
	if items == nil {
		return nil, fmt.Errorf("grocery reconciler: collection is required")
	}
	return &Groceries{base: newBase(opts, "groceries"), remote: remote, items: items}, nil
}

// Load fetches, migrates and installs the grocery collection, writing
// migrated records back. A failed or malformed fetch installs the empty
// collection and returns the cause.
func (g *Groceries) Load(ctx context.Context) error {
	return g.load(ctx, true)
}

// LoadReadOnly is Load without the migration write-back.
func (g *Groceries) LoadReadOnly(ctx context.Context) error {
	return g.load(ctx, false)
}

func (g *Groceries) load(ctx context.Context, writeBack bool) error {
	raw, err := g.remote.ListGroceries(ctx)
	g.observe(err)
	if err != nil {
		g.items.Replace(nil)
		g.log.Warn("load groceries failed, using empty list", zap.Error(err))
		return fmt.Errorf("load groceries: %w", err)
	}

	items, migrated := model.MigrateGroceries(raw)
	g.items.Replace(items)
	g.log.Debug("groceries loaded", zap.Int("count", len(items)), zap.Bool("migrated", migrated))
	if !migrated || !writeBack {
		return nil
	}
	if skipped := len(raw) - len(items); skipped > 0 {
		g.log.Warn("unreadable grocery records on server, not writing back migration", zap.Int("skipped", skipped))
		return nil
	}
	if err := g.remote.SaveGroceries(ctx, items); err != nil {
		g.observe(err)
		g.log.Warn("write back migrated groceries failed", zap.Error(err))
		return nil
	}
	g.observe(nil)
	g.log.Info("migrated groceries written back", zap.Int("count", len(items)))
	return nil
}

// Add creates a grocery. Names are normalized and must be unique.
func (g *Groceries) Add(ctx context.Context, name string) (Outcome, error) {
	normalized := model.NormalizeName(name)
	if normalized == "" {
		return Outcome{Message: "Enter an item name"}, ErrEmptyName
	}
	if g.exists(normalized, -1) {
		return Outcome{Message: "Item already exists"}, fmt.Errorf("add grocery %q: %w", normalized, ErrDuplicate)
	}

	reply, err := g.remote.CreateGrocery(ctx, normalized)
	g.observe(err)
	if err != nil {
		return Outcome{Message: api.UserMessage(err, "Failed to add grocery item")}, fmt.Errorf("add grocery %q: %w", normalized, err)
	}

	g.items.Update(func(items []model.GroceryItem) []model.GroceryItem {
		if reply.IsList {
			return normalizeGroceries(reply.Items)
		}
		if record, ok := groceryRecord(reply); ok {
			return append(items, record)
		}
		return append(items, model.GroceryItem{Name: normalized, Purchases: []string{}})
	})
	return Outcome{Message: fmt.Sprintf("Added %q to grocery list", normalized)}, nil
}

// TogglePurchase marks or unmarks today's purchase of name. Marking an item
// already bought today is a no-op.
func (g *Groceries) TogglePurchase(ctx context.Context, name string, checked bool) (Outcome, error) {
	item, ok := g.find(name)
	if !ok {
		return Outcome{}, fmt.Errorf("toggle purchase %q: %w", name, ErrNotFound)
	}
	today := g.now()

	if checked {
		if item.PurchasedOn(today) {
			return Outcome{}, nil
		}
		stamp := model.FormatTimestamp(today)
		appendToday := func(it *model.GroceryItem) {
			it.Purchases = append(it.Purchases, stamp)
		}

		reply, err := g.remote.RecordPurchase(ctx, name)
		g.observe(err)
		if err == nil {
			g.merge(name, reply, appendToday)
			return Outcome{Message: fmt.Sprintf("Recorded purchase of %q", name)}, nil
		}
		g.mutate(name, appendToday)
		return g.fallback(ctx, "Failed to record purchase, saved locally", fmt.Errorf("record purchase %q: %w", name, err))
	}

	idx := item.PurchaseIndexOn(today)
	if idx < 0 {
		return Outcome{}, nil
	}
	remaining := removeAt(item.Clone().Purchases, idx)
	removeToday := func(it *model.GroceryItem) {
		it.Purchases = removeAt(it.Purchases, it.PurchaseIndexOn(today))
	}

	reply, err := g.remote.UpdateGrocery(ctx, name, api.GroceryPatch{Purchases: &remaining})
	g.observe(err)
	if err == nil {
		g.merge(name, reply, removeToday)
		return Outcome{Message: fmt.Sprintf("Unmarked %q", name)}, nil
	}
	g.mutate(name, removeToday)
	return g.fallback(ctx, "Failed to update purchase, saved locally", fmt.Errorf("unmark purchase %q: %w", name, err))
}

// ToggleExpanded flips the history panel of name. The flip is applied
// before the request and survives its failure.
func (g *Groceries) ToggleExpanded(ctx context.Context, name string) (Outcome, error) {
	var expanded bool
	flip := func(it *model.GroceryItem) {
		it.Expanded = !it.Expanded
		expanded = it.Expanded
	}
	if !g.mutate(name, flip) {
		return Outcome{}, fmt.Errorf("toggle history %q: %w", name, ErrNotFound)
	}

	reply, err := g.remote.UpdateGrocery(ctx, name, api.GroceryPatch{Expanded: &expanded})
	g.observe(err)
	if err == nil {
		g.merge(name, reply, nil)
		return Outcome{}, nil
	}
	toggleFallback(groceryTogglePolicy, g.items, byName(name), func(it *model.GroceryItem) { it.Expanded = !it.Expanded })
	return g.fallback(ctx, "Failed to update grocery, saved locally", fmt.Errorf("toggle history %q: %w", name, err))
}

// Delete removes the grocery at index.
func (g *Groceries) Delete(ctx context.Context, index int) (Outcome, error) {
	snap := g.items.Snapshot()
	if index < 0 || index >= len(snap) {
		return Outcome{}, fmt.Errorf("delete grocery %d: %w", index, ErrNotFound)
	}
	name := snap[index].Name

	reply, err := g.remote.DeleteGrocery(ctx, name)
	g.observe(err)
	if err == nil {
		if reply.IsList {
			g.items.Replace(normalizeGroceries(reply.Items))
		} else {
			g.remove(name)
		}
		return Outcome{Message: fmt.Sprintf("Deleted %q", name)}, nil
	}
	g.remove(name)
	return g.fallback(ctx, "Failed to delete grocery", fmt.Errorf("delete grocery %q: %w", name, err))
}

// ResetAll empties the grocery collection. The local collection is emptied
// whether or not the request succeeds.
func (g *Groceries) ResetAll(ctx context.Context) (Outcome, error) {
	err := g.remote.DeleteGroceries(ctx)
	g.observe(err)
	g.items.Replace(nil)
	if err != nil {
		return g.fallback(ctx, "Failed to reset groceries", fmt.Errorf("reset groceries: %w", err))
	}
	return Outcome{Message: "Grocery list reset successfully"}, nil
}

// Rename changes the name of the grocery at index and bulk-saves.
func (g *Groceries) Rename(ctx context.Context, index int, newName string) (Outcome, error) {
	normalized := model.NormalizeName(newName)
	if normalized == "" {
		return Outcome{Message: "Enter an item name"}, ErrEmptyName
	}
	snap := g.items.Snapshot()
	if index < 0 || index >= len(snap) {
		return Outcome{}, fmt.Errorf("rename grocery %d: %w", index, ErrNotFound)
	}
	oldName := snap[index].Name
	if oldName == normalized {
		return Outcome{}, nil
	}
	if g.exists(normalized, index) {
		return Outcome{Message: "Item already exists"}, fmt.Errorf("rename grocery %q: %w", normalized, ErrDuplicate)
	}

	g.mutate(oldName, func(it *model.GroceryItem) { it.Name = normalized })
	if err := g.save(ctx); err != nil {
		return Outcome{Message: "Failed to save groceries"}, fmt.Errorf("rename grocery %q: %w", oldName, err)
	}
	return Outcome{Message: fmt.Sprintf("Renamed %q to %q", oldName, normalized)}, nil
}

// ClearHistory drops every purchase of name, collapses it and bulk-saves.
func (g *Groceries) ClearHistory(ctx context.Context, name string) (Outcome, error) {
	found := g.mutate(name, func(it *model.GroceryItem) {
		it.Purchases = []string{}
		it.Expanded = false
	})
	if !found {
		return Outcome{}, fmt.Errorf("clear history %q: %w", name, ErrNotFound)
	}
	if err := g.save(ctx); err != nil {
		return Outcome{Message: "Failed to save groceries"}, fmt.Errorf("clear history %q: %w", name, err)
	}
	return Outcome{Message: fmt.Sprintf("Cleared history for %q", name)}, nil
}

// SaveGroceries installs items and bulk-saves them.
func (g *Groceries) SaveGroceries(ctx context.Context, items []model.GroceryItem) error {
	g.items.Replace(normalizeGroceries(items))
	if err := g.save(ctx); err != nil {
		return fmt.Errorf("save groceries: %w", err)
	}
	return nil
}

func (g *Groceries) save(ctx context.Context) error {
	err := g.remote.SaveGroceries(ctx, g.items.Snapshot())
	g.observe(err)
	return err
}

// fallback bulk-saves the locally mutated collection after cause.
func (g *Groceries) fallback(ctx context.Context, message string, cause error) (Outcome, error) {
	g.log.Warn("grocery request failed, saving whole list", zap.Error(cause))
	out := Outcome{Message: message, Fallback: true}
	if err := g.save(ctx); err != nil {
		g.log.Warn("bulk save groceries failed", zap.Error(err))
		return out, errors.Join(cause, fmt.Errorf("bulk save groceries: %w", err))
	}
	return out, cause
}

// merge installs a successful reply for name. A reply that carries no
// grocery applies local instead.
func (g *Groceries) merge(name string, reply api.Reply[model.GroceryItem], local func(*model.GroceryItem)) {
	if reply.IsList {
		g.items.Replace(normalizeGroceries(reply.Items))
		return
	}
	if updated, ok := groceryRecord(reply); ok {
		g.mutate(name, func(it *model.GroceryItem) { *it = updated })
		return
	}
	if local != nil {
		g.mutate(name, local)
	}
}

// groceryRecord returns the reply's single record if it names a grocery.
func groceryRecord(reply api.Reply[model.GroceryItem]) (model.GroceryItem, bool) {
	if reply.Item == nil || strings.TrimSpace(reply.Item.Name) == "" {
		return model.GroceryItem{}, false
	}
	return model.NormalizeGrocery(*reply.Item), true
}

// mutate applies fn to the grocery called name under the collection lock.
func (g *Groceries) mutate(name string, fn func(*model.GroceryItem)) bool {
	found := false
	g.items.Update(func(items []model.GroceryItem) []model.GroceryItem {
		if idx := indexByName(items, name); idx >= 0 {
			fn(&items[idx])
			found = true
		}
		return items
	})
	return found
}

func (g *Groceries) remove(name string) {
	g.items.Update(func(items []model.GroceryItem) []model.GroceryItem {
		return removeAt(items, indexByName(items, name))
	})
}

func (g *Groceries) find(name string) (model.GroceryItem, bool) {
	snap := g.items.Snapshot()
	if idx := indexByName(snap, name); idx >= 0 {
		return snap[idx], true
	}
	return model.GroceryItem{}, false
}

// exists reports whether normalized collides with any grocery other than
// the one at skip.
func (g *Groceries) exists(normalized string, skip int) bool {
	for i, item := range g.items.Snapshot() {
		if i != skip && model.NormalizeName(item.Name) == normalized {
			return true
		}
	}
	return false
}

func indexByName(items []model.GroceryItem, name string) int {
	for i := range items {
		if items[i].Name == name {
			return i
		}
	}
	return -1
}

func byName(name string) func(model.GroceryItem) bool {
	return func(it model.GroceryItem) bool { return it.Name == name }
}

func normalizeGroceries(items []model.GroceryItem) []model.GroceryItem {
	out := make([]model.GroceryItem, len(items))
	for i, item := range items {
		out[i] = model.NormalizeGrocery(item.Clone())
	}
	return out
}
