package payroll

import (
	"context"

	"github.com/warp/shiftpay/generic"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// BATCH - One period, many staff
// =============================================================================

// DefaultBatchLimit bounds concurrent calculations when Batch.Limit is unset.
const DefaultBatchLimit = 8

type StaffInput struct {
	StaffID generic.StaffID
	Input   Input
}

type BatchItem struct {
	StaffID generic.StaffID
	Detail  Detail
	Err     error
}

type BatchResult struct {
	Items []BatchItem
}

func (r BatchResult) Succeeded() []BatchItem {
	var out []BatchItem
	for _, item := range r.Items {
		if item.Err == nil {
			out = append(out, item)
		}
	}
	return out
}

func (r BatchResult) Failed() []BatchItem {
	var out []BatchItem
	for _, item := range r.Items {
		if item.Err != nil {
			out = append(out, item)
		}
	}
	return out
}

// Batch calculates many staff members independently. A failed calculation
// is recorded on its item and never cancels the others. Items keep input
// order.
type Batch struct {
	Engine Engine
	Limit  int
}

func (b Batch) Run(ctx context.Context, inputs []StaffInput) BatchResult {
	items := make([]BatchItem, len(inputs))

	limit := b.Limit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			items[i].StaffID = in.StaffID
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Detail, items[i].Err = b.Engine.Calculate(in.Input)
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{Items: items}
}
