package huobi

// contractInfoResponse is the swap contract listing envelope.
type contractInfoResponse struct {
	Status string           `json:"status"`
	Data   []contractDetail `json:"data"`
	ErrMsg string           `json:"err_msg"`
}

// contractDetail is one perpetual contract descriptor. PriceTick arrives as
// a bare JSON number.
type contractDetail struct {
	Symbol         string `json:"symbol"`
	ContractCode   string `json:"contract_code"`
	PriceTick      any    `json:"price_tick"`
	ContractStatus int    `json:"contract_status"`
}

// fundingResponse is the funding-rate query envelope.
type fundingResponse struct {
	Status string        `json:"status"`
	Data   fundingDetail `json:"data"`
	ErrMsg string        `json:"err_msg"`
}

// fundingDetail carries rates and settlement times as strings; the
// timestamps are epoch milliseconds.
type fundingDetail struct {
	ContractCode    string `json:"contract_code"`
	FundingRate     string `json:"funding_rate"`
	EstimatedRate   string `json:"estimated_rate"`
	FundingTime     string `json:"funding_time"`
	NextFundingTime string `json:"next_funding_time"`
}
