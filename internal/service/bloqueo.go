package service

import (
	"context"
	"sort"

	"tiendapos/internal/apierror"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"gorm.io/gorm"
)

// Multi-row writers take every stock lock up front and in one global order
// (ascending id, or ascending ClaveStock when rows are addressed by tuple),
// so two requests touching the same rows queue instead of deadlocking.

// bloquearPorID locks each distinct id once, lowest first.
func bloquearPorID(ctx context.Context, tx *gorm.DB, repo repository.StockRepository, ids []uint) (map[uint]*model.Stock, error) {
	unicos := make([]uint, 0, len(ids))
	vistos := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !vistos[id] {
			vistos[id] = true
			unicos = append(unicos, id)
		}
	}
	sort.Slice(unicos, func(i, j int) bool { return unicos[i] < unicos[j] })

	out := make(map[uint]*model.Stock, len(unicos))
	for _, id := range unicos {
		st, err := repo.FindByID(ctx, tx, id, true)
		if repository.IsNotFound(err) {
			return nil, apierror.NewNotFound("Stock %d no encontrado", id)
		}
		if err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, nil
}

// bloquearClaves locks the row behind each distinct tuple in ClaveStock
// order. Tuples with no row come back as absent; the unique index on the
// tuple serializes their creation.
func bloquearClaves(ctx context.Context, tx *gorm.DB, repo repository.StockRepository, claves []model.ClaveStock) (map[model.ClaveStock]repository.StockLookup, error) {
	orden := make([]model.ClaveStock, 0, len(claves))
	vistas := make(map[model.ClaveStock]bool, len(claves))
	for _, k := range claves {
		if !vistas[k] {
			vistas[k] = true
			orden = append(orden, k)
		}
	}
	sort.Slice(orden, func(i, j int) bool { return orden[i].Menor(orden[j]) })

	out := make(map[model.ClaveStock]repository.StockLookup, len(orden))
	for _, k := range orden {
		lookup, err := repo.Lookup(ctx, tx, k, true)
		if err != nil {
			return nil, err
		}
		out[k] = lookup
	}
	return out, nil
}
