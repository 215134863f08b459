package soap

import (
	"errors"
	"strings"
	"testing"
)

const changedStockResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <GetChangedStockResponse xmlns="http://sherpa.sherpaan.nl/">
      <GetChangedStockResult>
        <ChangedStock>
          <ItemCode>A-100</ItemCode>
          <WarehouseCode>WH1</WarehouseCode>
          <Quantity>12</Quantity>
          <Token>1001</Token>
        </ChangedStock>
        <ChangedStock>
          <ItemCode>A-200</ItemCode>
          <WarehouseCode>WH1</WarehouseCode>
          <Quantity>3</Quantity>
          <Token>1002</Token>
        </ChangedStock>
      </GetChangedStockResult>
    </GetChangedStockResponse>
  </soap:Body>
</soap:Envelope>`

func TestParsePage_Items(t *testing.T) {
	page, err := ParsePage([]byte(changedStockResponse), "GetChangedStock", "ChangedStock")
	if err != nil {
		t.Fatalf("ParsePage() failed: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(page.Items))
	}

	first := page.Items[0]
	if first["ItemCode"] != "A-100" {
		t.Errorf("ItemCode = %q, want %q", first["ItemCode"], "A-100")
	}
	if first["Quantity"] != "12" {
		t.Errorf("Quantity = %q, want %q", first["Quantity"], "12")
	}
	if first["Token"] != "1001" {
		t.Errorf("Token = %q, want %q", first["Token"], "1001")
	}

	// Page token comes from the last item
	if page.Token != "1002" {
		t.Errorf("Page token = %q, want %q", page.Token, "1002")
	}
}

func TestParsePage_PreservesItemOrder(t *testing.T) {
	page, err := ParsePage([]byte(changedStockResponse), "GetChangedStock", "ChangedStock")
	if err != nil {
		t.Fatalf("ParsePage() failed: %v", err)
	}

	if page.Items[0]["ItemCode"] != "A-100" || page.Items[1]["ItemCode"] != "A-200" {
		t.Errorf("Items out of order: %v", page.Items)
	}
}

func TestParsePage_EmptyPage(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <GetChangedStockResponse xmlns="http://sherpa.sherpaan.nl/">
      <GetChangedStockResult />
    </GetChangedStockResponse>
  </soap:Body>
</soap:Envelope>`

	page, err := ParsePage([]byte(body), "GetChangedStock", "ChangedStock")
	if err != nil {
		t.Fatalf("ParsePage() failed on empty page: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(page.Items))
	}
	if page.Token != "" {
		t.Errorf("Token = %q, want empty", page.Token)
	}
}

func TestParsePage_MissingResponseElement(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <SomethingElse xmlns="http://sherpa.sherpaan.nl/" />
  </soap:Body>
</soap:Envelope>`

	_, err := ParsePage([]byte(body), "GetChangedStock", "ChangedStock")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePage_NotXML(t *testing.T) {
	_, err := ParsePage([]byte("502 Bad Gateway"), "GetChangedStock", "ChangedStock")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePage_Soap12Fault(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <soap:Fault>
      <soap:Code><soap:Value>soap:Receiver</soap:Value></soap:Code>
      <soap:Reason><soap:Text xml:lang="en">Invalid security code</soap:Text></soap:Reason>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

	_, err := ParsePage([]byte(body), "GetChangedStock", "ChangedStock")
	if !errors.Is(err, ErrServiceFault) {
		t.Fatalf("Expected ErrServiceFault, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid security code") {
		t.Errorf("Error should carry the fault reason, got %q", err.Error())
	}
}

func TestParsePage_Soap11Fault(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Object reference not set to an instance of an object.</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

	_, err := ParsePage([]byte(body), "GetChangedStock", "ChangedStock")
	if !errors.Is(err, ErrServiceFault) {
		t.Fatalf("Expected ErrServiceFault, got %v", err)
	}
	if !strings.Contains(err.Error(), "Object reference not set") {
		t.Errorf("Error should carry the fault reason, got %q", err.Error())
	}
}

func TestParsePage_ItemsOutsideResponseIgnored(t *testing.T) {
	// Elements matching the items key before the response element must not
	// become records.
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Header><ChangedStock><ItemCode>ghost</ItemCode></ChangedStock></soap:Header>
  <soap:Body>
    <GetChangedStockResponse xmlns="http://sherpa.sherpaan.nl/">
      <GetChangedStockResult>
        <ChangedStock><ItemCode>real</ItemCode><Token>7</Token></ChangedStock>
      </GetChangedStockResult>
    </GetChangedStockResponse>
  </soap:Body>
</soap:Envelope>`

	page, err := ParsePage([]byte(body), "GetChangedStock", "ChangedStock")
	if err != nil {
		t.Fatalf("ParsePage() failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Items = %d, want 1", len(page.Items))
	}
	if page.Items[0]["ItemCode"] != "real" {
		t.Errorf("ItemCode = %q, want %q", page.Items[0]["ItemCode"], "real")
	}
}

func TestParsePage_EscapedContent(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <GetChangedSuppliersResponse xmlns="http://sherpa.sherpaan.nl/">
      <GetChangedSuppliersResult>
        <ChangedSuppliers>
          <Name>Jansen &amp; Zonen &lt;BV&gt;</Name>
          <Token>42</Token>
        </ChangedSuppliers>
      </GetChangedSuppliersResult>
    </GetChangedSuppliersResponse>
  </soap:Body>
</soap:Envelope>`

	page, err := ParsePage([]byte(body), "GetChangedSuppliers", "ChangedSuppliers")
	if err != nil {
		t.Fatalf("ParsePage() failed: %v", err)
	}
	if page.Items[0]["Name"] != "Jansen & Zonen <BV>" {
		t.Errorf("Name = %q, entities not decoded", page.Items[0]["Name"])
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "ABC-123", "ABC-123"},
		{"ampersand", "Jansen & Zonen", "Jansen &amp; Zonen"},
		{"angle brackets", "<token>", "&lt;token&gt;"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.expected {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
