package models

// AddItemRequest is the payload accepted by POST /items.
type AddItemRequest struct {
	Identifier string   `json:"identifier" binding:"required"`
	Category   Category `json:"category"`
}

// ItemRequest addresses one item by id or exact name in a JSON body, so
// names may contain any character.
type ItemRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ErrorResponse is the JSON body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
