package echo

type errorBody struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CurrentStatus string `json:"current_status,omitempty"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func errorResponse(code, message string) apiResponse {
	return apiResponse{Error: &errorBody{Code: code, Message: message}}
}
