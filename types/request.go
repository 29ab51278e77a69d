package types

const ChatModeWisdom = "wisdom"

type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Mode     string `json:"mode"`
}
