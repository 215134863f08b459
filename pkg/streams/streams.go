package streams

import (
	"fmt"

	"github.com/bkuipers/sherpa-sync/pkg/soap"
)

// Envelope templates. SOAP 1.2, Sherpa namespace; securityCode always first.
const (
	changedItemsInformationEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedItemsInformation xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
      <tns:itemInformationTypes>
        <tns:ItemInformationType>General</tns:ItemInformationType>
        <tns:ItemInformationType>EanCode</tns:ItemInformationType>
        <tns:ItemInformationType>CustomFields</tns:ItemInformationType>
        <tns:ItemInformationType>Warehouses</tns:ItemInformationType>
        <tns:ItemInformationType>ItemSuppliers</tns:ItemInformationType>
        <tns:ItemInformationType>ItemAssemblies</tns:ItemInformationType>
        <tns:ItemInformationType>ItemPurchases</tns:ItemInformationType>
      </tns:itemInformationTypes>
    </tns:ChangedItemsInformation>
  </soap12:Body>
</soap12:Envelope>`

	changedStockEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedStock xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:maxResult>%d</tns:maxResult>
    </tns:ChangedStock>
  </soap12:Body>
</soap12:Envelope>`

	changedSuppliersEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedSuppliers xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
    </tns:ChangedSuppliers>
  </soap12:Body>
</soap12:Envelope>`

	supplierInfoEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:SupplierInfo xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:supplierCode>%s</tns:supplierCode>
    </tns:SupplierInfo>
  </soap12:Body>
</soap12:Envelope>`

	changedItemSuppliersEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedItemSuppliersWithDefaults xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
    </tns:ChangedItemSuppliersWithDefaults>
  </soap12:Body>
</soap12:Envelope>`

	changedOrdersInformationEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedOrdersInformation xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
      <tns:orderInformationTypes>
        <tns:OrderInformationType>General</tns:OrderInformationType>
        <tns:OrderInformationType>OrderLines</tns:OrderInformationType>
      </tns:orderInformationTypes>
    </tns:ChangedOrdersInformation>
  </soap12:Body>
</soap12:Envelope>`

	changedPurchasesEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedPurchases xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
    </tns:ChangedPurchases>
  </soap12:Body>
</soap12:Envelope>`

	purchaseInfoEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:PurchaseInfo xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:purchaseNumber>%s</tns:purchaseNumber>
    </tns:PurchaseInfo>
  </soap12:Body>
</soap12:Envelope>`

	changedStockByWarehouseGroupEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedStockByWarehousegroupCode xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:warehousegroupCode>%s</tns:warehousegroupCode>
      <tns:maxResult>%d</tns:maxResult>
    </tns:ChangedStockByWarehousegroupCode>
  </soap12:Body>
</soap12:Envelope>`

	changedDeletedObjectsEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <tns:ChangedDeletedObjects xmlns:tns="http://sherpa.sherpaan.nl/">
      <tns:securityCode>%s</tns:securityCode>
      <tns:token>%s</tns:token>
      <tns:count>%d</tns:count>
    </tns:ChangedDeletedObjects>
  </soap12:Body>
</soap12:Envelope>`
)

// ChangedItemsInformation extracts changed item master data.
var ChangedItemsInformation = &Descriptor{
	Name:           "changed_items_information",
	Operation:      "ChangedItemsInformation",
	ItemsKey:       "ItemCodeTokenItemInformation",
	PrimaryKeys:    []string{"ItemCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"ItemCode", TypeString},
		{"ItemStatus", TypeString},
		{"Token", TypeString},
		{"ItemType", TypeString},
		{"Description", TypeString},
		{"Brand", TypeString},
		{"AutoStockLevel", TypeBoolean},
		{"Dropship", TypeBoolean},
		{"HideOnPicklist", TypeBoolean},
		{"HideOnInvoice", TypeBoolean},
		{"HideOnReturnDocument", TypeBoolean},
		{"PrintLabelsReceivedPurchaseItems", TypeBoolean},
		{"CostPrice", TypeString},
		{"Price", TypeString},
		{"VatCode", TypeString},
		{"StockPeriod", TypeString},
		{"OrderVolume", TypeString},
		{"OrderVolumeCeilFrom", TypeString},
		{"PriceIncl", TypeString},
		{"Weight", TypeString},
		{"Length", TypeString},
		{"Width", TypeString},
		{"Height", TypeString},
		{"DateAdded", TypeDateTime},
		{"AvgPurchasePrice", TypeString},
		{"StockInAllWarehouses", TypeString},
		{"ReservedInAllWarehouses", TypeString},
		{"AvailableStockInAllWarehouses", TypeString},
		{"EanCode", TypeString},
		{"CustomFields", TypeString},
		{"Warehouses", TypeString},
		{"ItemSuppliers", TypeString},
		{"ItemAssemblies", TypeString},
		{"ItemPurchases", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedItemsInformationEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
}

// ChangedStock extracts per-warehouse stock changes.
var ChangedStock = &Descriptor{
	Name:           "changed_stock",
	Operation:      "ChangedStock",
	ItemsKey:       "ItemStockToken",
	PrimaryKeys:    []string{"ItemCode", "WarehouseCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"ItemCode", TypeString},
		{"Available", TypeString},
		{"Stock", TypeString},
		{"Reserved", TypeString},
		{"ItemStatus", TypeString},
		{"ExpectedDate", TypeDateTime},
		{"QtyWaitingToReceive", TypeString},
		{"FirstExpectedDate", TypeDateTime},
		{"FirstExpectedQtyWaitingToReceive", TypeString},
		{"LastModified", TypeDateTime},
		{"AvgPurchasePrice", TypeString},
		{"WarehouseCode", TypeString},
		{"CostPrice", TypeString},
		{"Token", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedStockEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
}

// ChangedSuppliers extracts changed supplier references. Parent of
// SupplierInfo: each distinct ClientCode drives one child lookup.
var ChangedSuppliers = &Descriptor{
	Name:           "changed_suppliers",
	Operation:      "ChangedSuppliers",
	ItemsKey:       "ClientCodeToken",
	PrimaryKeys:    []string{"ClientCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"ClientCode", TypeString},
		{"Active", TypeString},
		{"Token", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedSuppliersEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
	ChildContext: func(rec soap.Record) map[string]string {
		if rec["ClientCode"] == "" {
			return nil
		}
		return map[string]string{"client_code": rec["ClientCode"]}
	},
}

// SupplierInfo is the single-shot detail lookup for one supplier, driven by
// ChangedSuppliers contexts.
var SupplierInfo = &Descriptor{
	Name:        "supplier_info",
	Operation:   "SupplierInfo",
	ItemsKey:    "ResponseValue",
	PrimaryKeys: []string{"ClientCode"},
	Paginate:    false,
	Parent:      "changed_suppliers",
	Schema: []Field{
		{"SupplierCode", TypeString},
		{"Token", TypeString},
		{"Remarks", TypeString},
		{"CustomFields", TypeString},
		{"AddressType", TypeString},
		{"Gender", TypeString},
		{"Name", TypeString},
		{"NameFirst", TypeString},
		{"NamePreLast", TypeString},
		{"NameLast", TypeString},
		{"Company", TypeString},
		{"Phone", TypeString},
		{"Street", TypeString},
		{"HouseNumber", TypeString},
		{"HouseNumberAddon", TypeString},
		{"PostalCode", TypeString},
		{"City", TypeString},
		{"CountryCode", TypeString},
		{"CountryName", TypeString},
		{"StateCode", TypeString},
		{"TaxIdNumber", TypeString},
		{"BankAccount", TypeString},
		{"NameBankAccount", TypeString},
		{"CityBankAccount", TypeString},
		{"BicCode", TypeString},
		{"ChamberNumber", TypeString},
		{"Mobile", TypeString},
		{"Fax", TypeString},
		{"Email", TypeString},
		{"Homepage", TypeString},
		{"AddressLine1", TypeString},
		{"AddressLine2", TypeString},
		{"AddressLine3", TypeString},
		{"EmailAddressIsInvalid", TypeString},
		{"AllowMailing", TypeString},
		{"FullAddress", TypeString},
		{"PersonalNumber", TypeString},
		{"OrderPeriod", TypeString},
		{"DeliveryPeriod", TypeString},
		{"AutoPreferredItemSupplier", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(supplierInfoEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Context["client_code"]))
	},
}

// ChangedItemSuppliersWithDefaults extracts changed item/supplier links.
var ChangedItemSuppliersWithDefaults = &Descriptor{
	Name:           "changed_item_suppliers_with_defaults",
	Operation:      "ChangedItemSuppliersWithDefaults",
	ItemsKey:       "SupplierItemCodeToken",
	PrimaryKeys:    []string{"ItemCode", "ClientCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"SupplierCode", TypeString},
		{"SupplierItemCode", TypeString},
		{"ItemCode", TypeString},
		{"SupplierDescription", TypeString},
		{"SupplierStock", TypeString},
		{"SupplierPrice", TypeString},
		{"OrderPeriod", TypeString},
		{"DeliveryPeriod", TypeString},
		{"Preferred", TypeString},
		{"Token", TypeString},
		{"AvailableFrom", TypeString},
		{"SupplierItemStatus", TypeString},
		{"VatCode", TypeString},
		{"LastModified", TypeString},
		{"MinPurchaseQty", TypeString},
		{"SupplierPurchaseQty", TypeString},
		{"SupplierPurchaseQtyMultiplier", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedItemSuppliersEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
}

// ChangedOrdersInformation extracts changed sales orders with order lines.
var ChangedOrdersInformation = &Descriptor{
	Name:           "changed_orders_information",
	Operation:      "ChangedOrdersInformation",
	ItemsKey:       "OrderNumberTokenOrderInformation",
	PrimaryKeys:    []string{"OrderCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"OrderNumber", TypeString},
		{"Token", TypeString},
		{"OrderStatus", TypeString},
		{"OrderDate", TypeDateTime},
		{"InvoiceDate", TypeDateTime},
		{"SendInvoiceByEmail", TypeBoolean},
		{"NumberOfColli", TypeString},
		{"Priority", TypeBoolean},
		{"ShippingDate", TypeDateTime},
		{"PricesIncl", TypeBoolean},
		{"OrderAmountInclVAT", TypeString},
		{"OrderAmountInclVATInclBackOrderItems", TypeString},
		{"Paid", TypeString},
		{"ElectronicPaid", TypeString},
		{"AmountDue", TypeString},
		{"Margin", TypeString},
		{"WarehouseCode", TypeString},
		{"OrderWarning", TypeString},
		{"PaymentMethodCode", TypeString},
		{"ParcelServiceCode", TypeString},
		{"ParcelTypeCode", TypeString},
		{"OrderLines", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedOrdersInformationEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
}

// ChangedPurchases extracts changed purchase orders. Records without an
// OrderNumber are dropped entirely; each distinct OrderNumber drives one
// PurchaseInfo child lookup.
var ChangedPurchases = &Descriptor{
	Name:           "changed_purchases",
	Operation:      "ChangedPurchases",
	ItemsKey:       "PurchaseCodeToken",
	PrimaryKeys:    []string{"PurchaseCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"PurchaseCode", TypeString},
		{"OrderNumber", TypeString},
		{"Token", TypeString},
		{"PurchaseStatus", TypeString},
		{"WarehouseCode", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedPurchasesEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
	Filter: func(rec soap.Record) bool {
		return rec["OrderNumber"] != ""
	},
	ChildContext: func(rec soap.Record) map[string]string {
		if rec["OrderNumber"] == "" {
			return nil
		}
		return map[string]string{"purchase_number": rec["OrderNumber"]}
	},
}

// PurchaseInfo is the single-shot detail lookup for one purchase order,
// driven by ChangedPurchases contexts.
var PurchaseInfo = &Descriptor{
	Name:        "purchase_info",
	Operation:   "PurchaseInfo",
	ItemsKey:    "ResponseValue",
	PrimaryKeys: []string{"PurchaseOrderNumber"},
	Paginate:    false,
	Parent:      "changed_purchases",
	Schema: []Field{
		{"SupplierCode", TypeString},
		{"PurchaseOrderNumber", TypeString},
		{"PurchaseDate", TypeString},
		{"PurchaseStatus", TypeDateTime},
		{"Reference", TypeString},
		{"WarehouseCode", TypeString},
		{"PurchaseLine", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(purchaseInfoEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Context["purchase_number"]))
	},
}

// ChangedStockByWarehouseGroupCode extracts stock changes scoped to the
// configured warehouse group.
var ChangedStockByWarehouseGroupCode = &Descriptor{
	Name:           "changed_stock_by_warehouse_group_code",
	Operation:      "ChangedStockByWarehousegroupCode",
	ItemsKey:       "ItemStockGroupToken",
	PrimaryKeys:    []string{"ItemCode"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"ItemCode", TypeString},
		{"Available", TypeString},
		{"Stock", TypeString},
		{"Reserved", TypeString},
		{"ItemStatus", TypeString},
		{"ExpectedDate", TypeDateTime},
		{"FirstExpectedDate", TypeDateTime},
		{"FirstExpectedQtyWaitingToReceive", TypeString},
		{"LastModified", TypeDateTime},
		{"QtyWaitingToReceive", TypeString},
		{"Token", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedStockByWarehouseGroupEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token),
			soap.Escape(p.WarehouseGroupCode), p.Count)
	},
}

// ChangedDeletedObjects extracts deletion events for all entity types.
var ChangedDeletedObjects = &Descriptor{
	Name:           "changed_deleted_objects",
	Operation:      "ChangedDeletedObjects",
	ItemsKey:       "DeletedObject",
	PrimaryKeys:    []string{"Token"},
	ReplicationKey: "Token",
	Paginate:       true,
	Schema: []Field{
		{"ObjectType", TypeString},
		{"ObjectId", TypeString},
		{"ObjectCode", TypeString},
		{"UserId", TypeString},
		{"UserName", TypeString},
		{"Date", TypeDateTime},
		{"Token", TypeString},
	},
	BuildEnvelope: func(p EnvelopeParams) string {
		return fmt.Sprintf(changedDeletedObjectsEnvelope,
			soap.Escape(p.SecurityCode), soap.Escape(p.Token), p.Count)
	},
}

// all lists every descriptor in catalog order.
var all = []*Descriptor{
	ChangedItemsInformation,
	ChangedStock,
	ChangedSuppliers,
	SupplierInfo,
	ChangedItemSuppliersWithDefaults,
	ChangedOrdersInformation,
	ChangedPurchases,
	PurchaseInfo,
	ChangedStockByWarehouseGroupCode,
	ChangedDeletedObjects,
}

// All returns every known stream descriptor in catalog order.
func All() []*Descriptor {
	out := make([]*Descriptor, len(all))
	copy(out, all)
	return out
}

// Get returns the descriptor with the given stream name.
func Get(name string) (*Descriptor, bool) {
	for _, d := range all {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// ChildrenOf returns the descriptors whose Parent is the given stream, in
// catalog order.
func ChildrenOf(name string) []*Descriptor {
	var children []*Descriptor
	for _, d := range all {
		if d.Parent == name {
			children = append(children, d)
		}
	}
	return children
}
