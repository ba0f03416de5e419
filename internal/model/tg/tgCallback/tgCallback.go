package tgCallback

// Уникальные идентификаторы inline кнопок, payload передается через Data
const (
	Portfolio     string = "portfolio"
	Holdings      string = "holdings"
	AddHolding    string = "add_holding"    // начать добавление позиции
	DeleteHolding string = "delete_holding" // payload: id позиции
	ChooseSymbol  string = "choose_symbol"  // payload: тикер из результатов поиска
	Chart         string = "chart"
	Report        string = "report"
	UploadReport  string = "upload_report"
)
