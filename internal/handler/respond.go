package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/tkivila/craftshop/internal/domain/order"
	"github.com/tkivila/craftshop/internal/domain/product"
	"github.com/tkivila/craftshop/internal/domain/shipping"
)

// respond writes a JSON body built by fn with the given status code.
func respond(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	fn(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// respondError writes the standard error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// Monetary values are encoded as fixed two-decimal strings so they survive
// the trip through JSON without floating point drift.

func encodeOrder(e *jx.Encoder, o *order.Order, followUps *order.FollowUps) {
	e.ObjStart()
	e.FieldStart("number")
	e.Str(o.Number)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("subtotal")
	e.Str(o.Subtotal.StringFixed(2))
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))

	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(l.ProductID)
		e.FieldStart("title")
		e.Str(l.Title)
		e.FieldStart("price")
		e.Str(l.Price.StringFixed(2))
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("total")
		e.Str(l.Total.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("shipping")
	encodeShippingSelection(e, o.Shipping)

	if followUps != nil {
		e.FieldStart("followUps")
		e.ObjStart()
		e.FieldStart("invoiceDocument")
		e.Bool(followUps.InvoiceDocument)
		e.FieldStart("customerMail")
		e.Bool(followUps.CustomerMail)
		e.FieldStart("opsAlert")
		e.Bool(followUps.OpsAlert)
		e.FieldStart("degraded")
		e.Bool(followUps.Degraded())
		e.ObjEnd()
	}
	e.ObjEnd()
}

func encodeShippingSelection(e *jx.Encoder, s shipping.Selection) {
	e.ObjStart()
	e.FieldStart("providerId")
	e.Str(s.ProviderID)
	e.FieldStart("providerName")
	e.Str(s.ProviderName)
	e.FieldStart("optionName")
	e.Str(s.OptionName)
	e.FieldStart("price")
	e.Str(s.Price.StringFixed(2))
	e.FieldStart("address")
	e.Str(s.Address)
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("title")
	e.ObjStart()
	for _, lang := range []string{"en", "rus", "est"} {
		if v, ok := p.Title[lang]; ok {
			e.FieldStart(lang)
			e.Str(v)
		}
	}
	e.ObjEnd()
	e.FieldStart("price")
	e.Str(p.Price.StringFixed(2))
	e.FieldStart("available")
	e.Bool(p.Available)
	e.ObjEnd()
}

func encodeProvider(e *jx.Encoder, p shipping.Provider) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("addresses")
	e.ArrStart()
	for _, a := range p.Addresses {
		e.Str(a)
	}
	e.ArrEnd()
	e.FieldStart("options")
	e.ArrStart()
	for _, opt := range p.Options {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(opt.Name)
		e.FieldStart("price")
		e.Str(opt.Price.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
