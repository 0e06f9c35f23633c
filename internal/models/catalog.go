package models

// DiseaseType - категория заболеваний, по которой консультант выбирает препараты.
type DiseaseType struct {
	DiseaseTypeID int64  `json:"disease_type_id"`
	Name          string `json:"name"`
}

// Drug - позиция каталога. Цена приходит строкой или числом, иногда в научной нотации.
type Drug struct {
	DrugID        int64  `json:"drug_id"`
	Name          string `json:"name"`
	Price         Price  `json:"price"`
	DiseaseTypeID int64  `json:"disease_type_id"`
}
