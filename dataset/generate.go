package dataset

import (
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	regions = []string{"North America", "Europe", "Asia", "South America", "Africa", "Oceania"}

	countries = []string{
		"United States", "United Kingdom", "Germany", "France", "Japan",
		"Canada", "Australia", "China", "Brazil", "India",
	}

	categories = []string{
		"Electronics", "Clothing", "Home & Kitchen", "Books", "Sports",
		"Beauty", "Toys", "Automotive", "Health",
	}

	orderStatuses = []string{"Completed", "Processing", "Shipped", "Cancelled", "Refunded"}

	departments = []string{"Sales", "Marketing", "Engineering", "HR", "Finance", "Customer Support", "Operations"}
)

// generator draws every field value from a single seeded source
type generator struct {
	rng *rand.Rand
}

func (g *generator) pick(vocab []string) string {
	return vocab[g.rng.IntN(len(vocab))]
}

// between returns an int in [lo, lo+span)
func (g *generator) between(lo, span int) int {
	return lo + g.rng.IntN(span)
}

// date returns a YYYY-MM-DD day drawn uniformly from [from, to]
func (g *generator) date(from, to string) string {
	start, _ := time.Parse(time.DateOnly, from)
	end, _ := time.Parse(time.DateOnly, to)
	offset := time.Duration(g.rng.Int64N(int64(end.Sub(start)) + 1))
	return start.Add(offset).Format(time.DateOnly)
}

func (g *generator) sales(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			"id":           i + 1,
			"product_id":   g.between(1, 100),
			"customer_id":  g.between(1, 500),
			"sales_amount": g.between(100, 1000),
			"region":       g.pick(regions),
			"sale_date":    g.date("2022-01-01", "2023-12-31"),
		}
	}
	return rows
}

func (g *generator) customers(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		id := i + 1
		rows[i] = Row{
			"id":            id,
			"customer_name": fmt.Sprintf("Customer %d", id),
			"country":       g.pick(countries),
			"email":         fmt.Sprintf("customer%d@example.com", id),
			"join_date":     g.date("2020-01-01", "2023-12-31"),
		}
	}
	return rows
}

func (g *generator) products(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		id := i + 1
		rows[i] = Row{
			"id":           id,
			"product_name": fmt.Sprintf("Product %d", id),
			"category":     g.pick(categories),
			"price":        g.between(50, 500),
			"in_stock":     g.rng.Float64() > 0.2,
		}
	}
	return rows
}

func (g *generator) orders(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			"id":          i + 1,
			"customer_id": g.between(1, 500),
			"order_date":  g.date("2022-01-01", "2023-12-31"),
			"order_total": g.between(100, 2000),
			"status":      g.pick(orderStatuses),
		}
	}
	return rows
}

func (g *generator) employees(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		id := i + 1
		rows[i] = Row{
			"id":         id,
			"name":       fmt.Sprintf("Employee %d", id),
			"department": g.pick(departments),
			"hire_date":  g.date("2018-01-01", "2023-12-31"),
			"salary":     g.between(50000, 50000),
		}
	}
	return rows
}
