package location

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The hierarchy is Country → State → District → City → Locality. Rows are
// never hard-deleted; Active=false hides them from every query.
//
// Names are stored upper-cased and whitespace-trimmed so that equality
// matching is source-independent. Coordinates are numeric(9,6) fixed-point.

type Country struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	ISOCode   string    `gorm:"column:iso_code;size:2;uniqueIndex;not null" json:"iso_code"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`

	States []State `gorm:"foreignKey:CountryID" json:"states,omitempty"`
}

type State struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CountryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_state_name_country" json:"country_id"`
	Name      string    `gorm:"not null;uniqueIndex:uq_state_name_country" json:"name"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`

	Districts []District `gorm:"foreignKey:StateID" json:"districts,omitempty"`
	Cities    []City     `gorm:"foreignKey:StateID" json:"cities,omitempty"`
}

type District struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StateID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_district_name_state" json:"state_id"`
	Name      string    `gorm:"not null;uniqueIndex:uq_district_name_state" json:"name"`
	Active    bool      `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`

	Cities []City `gorm:"foreignKey:DistrictID" json:"cities,omitempty"`
}

// City carries the coordinates the proximity queries rank by. DistrictID is
// nullable: the gazetteer source has no district information, so uniqueness
// degrades to (name, state) for district-less rows.
type City struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StateID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_city_name_state_district" json:"state_id"`
	DistrictID *uuid.UUID       `gorm:"type:uuid;uniqueIndex:uq_city_name_state_district" json:"district_id"`
	Name       string           `gorm:"not null;uniqueIndex:uq_city_name_state_district" json:"name"`
	Lat        *decimal.Decimal `gorm:"type:numeric(9,6)" json:"lat"`
	Lng        *decimal.Decimal `gorm:"type:numeric(9,6)" json:"lng"`
	Active     bool             `gorm:"default:true;not null" json:"active"`
	CreatedAt  time.Time        `json:"created_at"`

	Localities []Locality `gorm:"foreignKey:CityID" json:"localities,omitempty"`
}

// Locality coordinates are copied from the parent City at creation when the
// source row has none. That copy is a one-time fallback, not a live
// relationship.
type Locality struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CityID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_locality_name_city" json:"city_id"`
	Name      string           `gorm:"not null;uniqueIndex:uq_locality_name_city" json:"name"`
	Pincode   string           `gorm:"size:10" json:"pincode"`
	Lat       *decimal.Decimal `gorm:"type:numeric(9,6)" json:"lat"`
	Lng       *decimal.Decimal `gorm:"type:numeric(9,6)" json:"lng"`
	Active    bool             `gorm:"default:true;not null" json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Country) TableName() string {
	return "country"
}

func (State) TableName() string {
	return "state"
}

func (District) TableName() string {
	return "district"
}

func (City) TableName() string {
	return "city"
}

func (Locality) TableName() string {
	return "locality"
}
