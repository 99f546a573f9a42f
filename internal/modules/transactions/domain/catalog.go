package domain

import "time"

// Catalog holds the literal field values used to populate each message of the sequence.
type Catalog struct {
	ChannelName          string
	ChannelStation       string
	ChannelProducts      []ProductAmount
	StartSnapshotOrdinal int64
	EndSnapshotOrdinal   int64

	SaleStation   string
	SaleItems     []ProductAmount
	SalePayment   string
	TargetStation string

	InventoryProduct string
	InventoryAmount  int64
	MoveAmount       int64

	NewProducts []ProductAmount
}

// DefaultCatalog returns the values the test network scenario has always used.
func DefaultCatalog() Catalog {
	return Catalog{
		ChannelName:          "aba3",
		ChannelStation:       "one",
		ChannelProducts:      []ProductAmount{{"Long", 5}, {"Red", 10}},
		StartSnapshotOrdinal: 100,
		EndSnapshotOrdinal:   10000,
		SaleStation:          "first station",
		SaleItems:            []ProductAmount{{"Long", 2}, {"Red", 3}},
		SalePayment:          "Cash",
		TargetStation:        "second station",
		InventoryProduct:     "Long",
		InventoryAmount:      20,
		MoveAmount:           10,
		NewProducts:          []ProductAmount{{"Coke", 5}},
	}
}

// Builder constructs one dependent message for a channel at submission time.
type Builder func(channelID, address string, at time.Time) Message

// CreateSalesChannel builds the first message of the sequence.
func (c Catalog) CreateSalesChannel(owner string) CreateSalesChannel {
	return CreateSalesChannel{
		Name:                 c.ChannelName,
		Owner:                owner,
		Station:              c.ChannelStation,
		Products:             cloneProducts(c.ChannelProducts),
		StartSnapshotOrdinal: c.StartSnapshotOrdinal,
		EndSnapshotOrdinal:   c.EndSnapshotOrdinal,
	}
}

// DependentBuilders returns the builders for the messages that follow channel creation,
// in submission order: AddSeller, Sale, AddInventory, MoveInventory, AddProducts.
func (c Catalog) DependentBuilders() []Builder {
	return []Builder{
		c.addSeller,
		c.sale,
		c.addInventory,
		c.moveInventory,
		c.addProducts,
	}
}

func (c Catalog) addSeller(channelID, address string, _ time.Time) Message {
	return AddSeller{ChannelID: channelID, Address: address, Seller: address}
}

func (c Catalog) sale(channelID, address string, at time.Time) Message {
	return Sale{
		ChannelID: channelID,
		Address:   address,
		Station:   c.SaleStation,
		Sale:      cloneProducts(c.SaleItems),
		Payment:   c.SalePayment,
		Timestamp: Timestamp(at),
	}
}

func (c Catalog) addInventory(channelID, address string, at time.Time) Message {
	return AddInventory{
		ChannelID: channelID,
		Address:   address,
		Station:   c.SaleStation,
		Product:   c.InventoryProduct,
		Amount:    c.InventoryAmount,
		Timestamp: Timestamp(at),
	}
}

func (c Catalog) moveInventory(channelID, address string, at time.Time) Message {
	return MoveInventory{
		ChannelID:   channelID,
		Address:     address,
		ToAddress:   address,
		FromStation: c.SaleStation,
		ToStation:   c.TargetStation,
		Product:     c.InventoryProduct,
		Amount:      c.MoveAmount,
		Timestamp:   Timestamp(at),
	}
}

func (c Catalog) addProducts(channelID, address string, _ time.Time) Message {
	return AddProducts{ChannelID: channelID, Address: address, Products: cloneProducts(c.NewProducts)}
}

func cloneProducts(in []ProductAmount) []ProductAmount {
	if in == nil {
		return nil
	}
	out := make([]ProductAmount, len(in))
	copy(out, in)
	return out
}
