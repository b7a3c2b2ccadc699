package core

import (
	"context"
	"fmt"
	"reflect"

	"repokit/pkg/domain"
	"repokit/pkg/query"
)

// Get returns a copy of the T stored under id. The boolean is false when no
// row exists.
func Get[T domain.Entity](ctx context.Context, r *Repository, id any) (T, bool, error) {
	var (
		out   T
		found bool
	)
	kind := domain.KindOf[T]()
	err := r.run(ctx, OpGet, func(ctx context.Context) error {
		e, ok, err := r.provider.Get(ctx, kind, id)
		if err != nil || !ok {
			return err
		}
		v, err := as[T](kind, e)
		if err != nil {
			return err
		}
		out, found = v, true
		return nil
	}, "kind", kind)
	return out, found, err
}

// Query returns the T rows matching e, windowed by args. The result is fully
// materialized and keeps provider order.
func Query[T domain.Entity](ctx context.Context, r *Repository, e *query.Exp, args *query.ListArgs) ([]T, error) {
	var out []T
	kind := domain.KindOf[T]()
	err := r.run(ctx, OpQuery, func(ctx context.Context) error {
		rows, err := r.provider.Query(ctx, kind, e, args)
		if err != nil {
			return err
		}
		out = make([]T, 0, len(rows))
		for _, row := range rows {
			v, err := as[T](kind, row)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	}, "kind", kind)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of T rows matching e.
func Count[T domain.Entity](ctx context.Context, r *Repository, e *query.Exp) (int, error) {
	var n int
	kind := domain.KindOf[T]()
	err := r.run(ctx, OpCount, func(ctx context.Context) error {
		var err error
		n, err = r.provider.Count(ctx, kind, e)
		return err
	}, "kind", kind)
	return n, err
}

// Page returns one page of T rows matching e together with the page
// counters for the whole result.
func Page[T domain.Entity](ctx context.Context, r *Repository, e *query.Exp, page query.PageInfo) ([]T, *query.Pages, error) {
	total, err := Count[T](ctx, r, e)
	if err != nil {
		return nil, nil, err
	}
	items, err := Query[T](ctx, r, e, page.ListArgs())
	if err != nil {
		return nil, nil, err
	}
	pages := query.NewPages(page.Size, page.Number, page.OrderBy)
	pages.SetRecord(total)
	return items, pages, nil
}

// DeleteNow stages and commits removal of the T identified by id.
func DeleteNow[T domain.Entity](ctx context.Context, r *Repository, id any) error {
	return r.DeleteNow(ctx, domain.KindOf[T](), id)
}

func as[T domain.Entity](kind domain.Kind, e domain.Entity) (T, error) {
	v, ok := e.(T)
	if !ok {
		var zero T
		return zero, domain.TypeMismatchError{
			Want:     kind,
			Got:      e.Kind(),
			WantType: reflect.TypeFor[T]().String(),
			GotType:  fmt.Sprintf("%T", e),
		}
	}
	return v, nil
}
