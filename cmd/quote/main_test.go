package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprates/internal/rate"
)

const cart = `{"line_items":[{"product_id":"p1","quantity":1,"height":20,"width":15,"depth":10,"weight":2}],"subtotal":30}`

func runQuote(t *testing.T, args ...string) rate.Quote {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(args, strings.NewReader(cart), &out))
	var q rate.Quote
	require.NoError(t, json.Unmarshal(out.Bytes(), &q))
	return q
}

func TestRun_BuiltinCatalog(t *testing.T) {
	q := runQuote(t, "--markup", "10")
	assert.Equal(t, "SDA", q.Carrier)
	assert.Equal(t, 8.00, q.BaseCost)
	assert.Equal(t, 8.80, q.FinalCost)
	assert.Equal(t, rate.ModeAllocated, q.Mode)
}

func TestRun_FreeThreshold(t *testing.T) {
	q := runQuote(t, "--free-threshold", "25", "--compact")
	assert.True(t, q.IsFreeShipping)
	assert.Zero(t, q.FinalCost)
	require.NotNil(t, q.FreeShippingThreshold)
	assert.Equal(t, 25.0, *q.FreeShippingThreshold)
}

func TestRun_CatalogFile(t *testing.T) {
	q := runQuote(t, "--catalog", "../../configs/catalog.yaml")
	assert.Equal(t, 1, q.TotalPackages)
	assert.Equal(t, rate.ModeAllocated, q.Mode)
}

func TestRun_RejectsInvalidInput(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, strings.NewReader(`{"line_items":[{"product_id":"p1","quantity":0}]}`), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")

	big := fmt.Sprintf(`{"line_items":[{"product_id":"p1","quantity":%d}]}`, rate.MaxQuantity+1)
	err = run(nil, strings.NewReader(big), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")

	err = run([]string{"--markup", "-5"}, strings.NewReader(cart), &out)
	require.Error(t, err)

	err = run([]string{"extra"}, strings.NewReader(cart), &out)
	require.Error(t, err)
}
