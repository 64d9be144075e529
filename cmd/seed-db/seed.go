package main

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/product"
)

// ownedAddress is an address together with its owner's cpf.
type ownedAddress struct {
	CPF     string
	Address address.Address
}

type seedFile struct {
	Clients   []client.Client
	Products  []product.Product
	Addresses []ownedAddress
}

func parseSeed(data []byte) (*seedFile, error) {
	var s seedFile
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "clients":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := decodeClient(d)
				s.Clients = append(s.Clients, c)
				return err
			})
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				s.Products = append(s.Products, p)
				return err
			})
		case "addresses":
			return d.Arr(func(d *jx.Decoder) error {
				a, err := decodeAddress(d)
				s.Addresses = append(s.Addresses, a)
				return err
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	return &s, nil
}

func decodeClient(d *jx.Decoder) (c client.Client, err error) {
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "cpf":
			c.CPF, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func decodeProduct(d *jx.Decoder) (p product.Product, err error) {
	p.Active = true
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "sku":
			p.SKU, err = d.Str()
		case "price":
			var n jx.Num
			if n, err = d.Num(); err == nil {
				p.Price, err = decimal.NewFromString(string(n))
			}
		case "stockQuantity":
			p.StockQuantity, err = d.Int()
		case "isActive":
			p.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func decodeAddress(d *jx.Decoder) (a ownedAddress, err error) {
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "cpf":
			a.CPF, err = d.Str()
		case "street":
			a.Address.Street, err = d.Str()
		case "number":
			a.Address.Number, err = d.Str()
		case "city":
			a.Address.City, err = d.Str()
		case "state":
			a.Address.State, err = d.Str()
		case "zip":
			a.Address.Zip, err = d.Str()
		case "addressType":
			a.Address.Type, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return a, err
}
