package models

// DefaultMeasurementUnit is used when an ingredient is imported without a unit.
const DefaultMeasurementUnit = "шт"

type Tag struct {
	ID    int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"size:200;uniqueIndex;not null"`
	Color string `json:"color" gorm:"size:7;not null"`
	Slug  string `json:"slug" gorm:"size:200;uniqueIndex;not null"`
}

func (Tag) TableName() string {
	return "tags"
}

type Ingredient struct {
	ID              int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string `json:"name" gorm:"size:200;not null;index"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:10;not null;default:'шт'"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
