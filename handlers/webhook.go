package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"

	"ridelink/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// twimlResponse is the minimal TwiML document that carries the reply back to
// the sender.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// InboundMessageHandler receives Twilio WhatsApp webhooks and feeds the
// conversation machine. The reply travels back as TwiML.
func (hb *HandlerBundle) InboundMessageHandler(c *gin.Context) {
	from := strings.TrimPrefix(c.PostForm("From"), "whatsapp:")
	body := c.PostForm("Body")
	if from == "" || strings.TrimSpace(body) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing sender or message body", "")
		return
	}

	reply, err := hb.ConversationSvc.HandleMessage(c.Request.Context(), from, body)
	if err != nil {
		utils.GetLogger().Error("Webhook turn failed", zap.String("from", from), zap.Error(err))
		reply = "Sorry, something went wrong. Please try again."
	}

	c.XML(http.StatusOK, twimlResponse{Message: reply})
}
