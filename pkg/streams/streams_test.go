package streams

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkuipers/sherpa-sync/pkg/soap"
)

func TestAll_CatalogComplete(t *testing.T) {
	names := make([]string, 0, len(All()))
	for _, d := range All() {
		names = append(names, d.Name)
	}

	assert.Equal(t, []string{
		"changed_items_information",
		"changed_stock",
		"changed_suppliers",
		"supplier_info",
		"changed_item_suppliers_with_defaults",
		"changed_orders_information",
		"changed_purchases",
		"purchase_info",
		"changed_stock_by_warehouse_group_code",
		"changed_deleted_objects",
	}, names)
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0] = nil

	second := All()
	require.NotNil(t, second[0])
	assert.Equal(t, "changed_items_information", second[0].Name)
}

func TestGet(t *testing.T) {
	desc, ok := Get("changed_stock")
	require.True(t, ok)
	assert.Equal(t, "ChangedStock", desc.Operation)
	assert.Equal(t, "ItemStockToken", desc.ItemsKey)

	_, ok = Get("no_such_stream")
	assert.False(t, ok)
}

func TestChildrenOf(t *testing.T) {
	suppliers := ChildrenOf("changed_suppliers")
	require.Len(t, suppliers, 1)
	assert.Equal(t, "supplier_info", suppliers[0].Name)

	purchases := ChildrenOf("changed_purchases")
	require.Len(t, purchases, 1)
	assert.Equal(t, "purchase_info", purchases[0].Name)

	assert.Empty(t, ChildrenOf("changed_stock"))
}

func TestDescriptors_Invariants(t *testing.T) {
	for _, d := range All() {
		t.Run(d.Name, func(t *testing.T) {
			assert.NotEmpty(t, d.Operation)
			assert.NotEmpty(t, d.ItemsKey)
			assert.NotEmpty(t, d.PrimaryKeys)
			assert.NotNil(t, d.BuildEnvelope)
			assert.NotEmpty(t, d.Schema)

			if d.Parent != "" {
				parent, ok := Get(d.Parent)
				require.True(t, ok, "parent %q must exist", d.Parent)
				assert.NotNil(t, parent.ChildContext, "parent %q must derive child contexts", d.Parent)
				assert.False(t, d.Paginate, "detail lookups are single-shot")
				assert.False(t, d.HasBookmark(), "child streams carry no bookmark")
			}

			if d.Paginate {
				assert.Equal(t, "Token", d.ReplicationKey)
				assert.True(t, d.HasBookmark())
			}
		})
	}
}

func TestBuildEnvelope_Paginated(t *testing.T) {
	env := ChangedStock.BuildEnvelope(EnvelopeParams{
		SecurityCode: "secret-123",
		Token:        "4711",
		Count:        200,
	})

	assert.Contains(t, env, "<tns:ChangedStock xmlns:tns=\"http://sherpa.sherpaan.nl/\">")
	assert.Contains(t, env, "<tns:securityCode>secret-123</tns:securityCode>")
	assert.Contains(t, env, "<tns:token>4711</tns:token>")
	assert.Contains(t, env, "<tns:maxResult>200</tns:maxResult>")

	// securityCode always precedes the token
	assert.Less(t, strings.Index(env, "securityCode"), strings.Index(env, "token"))
}

func TestBuildEnvelope_EscapesValues(t *testing.T) {
	env := ChangedStock.BuildEnvelope(EnvelopeParams{
		SecurityCode: "a&b<c>",
		Token:        "0",
		Count:        10,
	})

	assert.Contains(t, env, "a&amp;b&lt;c&gt;")
	assert.NotContains(t, env, "a&b<c>")
}

func TestBuildEnvelope_WarehouseGroup(t *testing.T) {
	env := ChangedStockByWarehouseGroupCode.BuildEnvelope(EnvelopeParams{
		SecurityCode:       "s",
		Token:              "9",
		Count:              50,
		WarehouseGroupCode: "WG-EU",
	})

	assert.Contains(t, env, "<tns:warehousegroupCode>WG-EU</tns:warehousegroupCode>")
	assert.Contains(t, env, "<tns:maxResult>50</tns:maxResult>")
}

func TestBuildEnvelope_DetailLookups(t *testing.T) {
	supplier := SupplierInfo.BuildEnvelope(EnvelopeParams{
		SecurityCode: "s",
		Context:      map[string]string{"client_code": "CL-7"},
	})
	assert.Contains(t, supplier, "<tns:supplierCode>CL-7</tns:supplierCode>")
	assert.NotContains(t, supplier, "<tns:token>")

	purchase := PurchaseInfo.BuildEnvelope(EnvelopeParams{
		SecurityCode: "s",
		Context:      map[string]string{"purchase_number": "PO-42"},
	})
	assert.Contains(t, purchase, "<tns:purchaseNumber>PO-42</tns:purchaseNumber>")
}

func TestBuildEnvelope_ItemInformationTypes(t *testing.T) {
	env := ChangedItemsInformation.BuildEnvelope(EnvelopeParams{
		SecurityCode: "s",
		Token:        "0",
		Count:        100,
	})

	for _, infoType := range []string{
		"General", "EanCode", "CustomFields", "Warehouses",
		"ItemSuppliers", "ItemAssemblies", "ItemPurchases",
	} {
		assert.Contains(t, env, "<tns:ItemInformationType>"+infoType+"</tns:ItemInformationType>")
	}
}

func TestChangedPurchases_Filter(t *testing.T) {
	assert.True(t, ChangedPurchases.Filter(soap.Record{"OrderNumber": "PO-1"}))
	assert.False(t, ChangedPurchases.Filter(soap.Record{"OrderNumber": ""}))
	assert.False(t, ChangedPurchases.Filter(soap.Record{}))
}

func TestChildContext(t *testing.T) {
	t.Run("suppliers", func(t *testing.T) {
		ctx := ChangedSuppliers.ChildContext(soap.Record{"ClientCode": "CL-1"})
		assert.Equal(t, map[string]string{"client_code": "CL-1"}, ctx)

		assert.Nil(t, ChangedSuppliers.ChildContext(soap.Record{}))
	})

	t.Run("purchases", func(t *testing.T) {
		ctx := ChangedPurchases.ChildContext(soap.Record{"OrderNumber": "PO-9", "PurchaseCode": "PC-1"})
		assert.Equal(t, map[string]string{"purchase_number": "PO-9"}, ctx)

		assert.Nil(t, ChangedPurchases.ChildContext(soap.Record{"PurchaseCode": "PC-2"}))
	})
}

func TestHasBookmark(t *testing.T) {
	assert.True(t, ChangedStock.HasBookmark())
	assert.True(t, ChangedDeletedObjects.HasBookmark())
	assert.False(t, SupplierInfo.HasBookmark())
	assert.False(t, PurchaseInfo.HasBookmark())
}
