package transport

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/minishop/internal/service"
)

func TestNumber_Unmarshal(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  string
	}{
		{`12`, true, "12"},
		{`12.75`, true, "12.75"},
		{`"42"`, true, "42"},
		{`" 3.5 "`, true, "3.5"},
		{`-4`, true, "-4"},
		{`"abc"`, false, ""},
		{`""`, false, ""},
		{`true`, false, ""},
		{`[1]`, false, ""},
		{`{"v":1}`, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tc.in), &n))
			assert.Equal(t, tc.valid, n.Valid)
			if tc.valid {
				assert.True(t, n.Value.Equal(decimal.RequireFromString(tc.want)))
			}
		})
	}
}

func TestNumber_NullLeavesPointerNil(t *testing.T) {
	var req UpdateCartRequest
	require.NoError(t, json.Unmarshal([]byte(`{"qty":null}`), &req))
	assert.Nil(t, req.Qty)

	_, err := req.Quantity()
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.EqualError(t, err, MsgInvalidQty)
}

func TestNumber_Int(t *testing.T) {
	n := &Number{Value: decimal.RequireFromString("2.9"), Valid: true}
	v, ok := n.Int()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	n = &Number{Value: decimal.RequireFromString("-2.9"), Valid: true}
	v, ok = n.Int()
	assert.True(t, ok)
	assert.Equal(t, -2, v)

	n = &Number{Value: decimal.RequireFromString("1e20"), Valid: true}
	_, ok = n.Int()
	assert.False(t, ok)

	var nilNum *Number
	_, ok = nilNum.Int()
	assert.False(t, ok)
}

func TestCreateItemRequest_Input(t *testing.T) {
	var req CreateItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","price":"50","stock":"x"}`), &req))

	in, err := req.Input()
	require.NoError(t, err)
	assert.Equal(t, "Tea", in.Name)
	require.NotNil(t, in.Price)
	assert.True(t, in.Price.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 0, in.Stock)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","price":"cheap"}`), &req))
	_, err = req.Input()
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.EqualError(t, err, MsgInvalidPrice)

	req = CreateItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","price":1,"stock":7.8}`), &req))
	in, err = req.Input()
	require.NoError(t, err)
	assert.Equal(t, 7, in.Stock)

	req = CreateItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea"}`), &req))
	in, err = req.Input()
	require.NoError(t, err)
	assert.Nil(t, in.Price)
}

func TestPatchItemRequest_Patch(t *testing.T) {
	var req PatchItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"description":"green","stock":"3"}`), &req))
	p, err := req.Patch()
	require.NoError(t, err)
	assert.Nil(t, p.Name)
	assert.Nil(t, p.Price)
	require.NotNil(t, p.Description)
	assert.Equal(t, "green", *p.Description)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)

	req = PatchItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"free"}`), &req))
	_, err = req.Patch()
	assert.EqualError(t, err, MsgInvalidPrice)

	req = PatchItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"stock":-1}`), &req))
	_, err = req.Patch()
	assert.EqualError(t, err, MsgInvalidStock)

	req = PatchItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	p, err = req.Patch()
	require.NoError(t, err)
	assert.Nil(t, p.Name)
	assert.Nil(t, p.Stock)
}

func TestAddToCartRequest_Input(t *testing.T) {
	id := uuid.New()

	_, _, err := AddToCartRequest{}.Input()
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.EqualError(t, err, service.MsgItemIDRequired)

	_, _, err = AddToCartRequest{ItemID: "not-a-uuid"}.Input()
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.EqualError(t, err, service.MsgItemNotFound)

	got, qty, err := AddToCartRequest{ItemID: id.String()}.Input()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, 0, qty)

	_, qty, err = AddToCartRequest{ItemID: id.String(), Qty: NumberOf(3)}.Input()
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := ParseID(id.String(), service.MsgLineNotFound)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("42", service.MsgLineNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.EqualError(t, err, service.MsgLineNotFound)
}
