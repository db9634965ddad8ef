package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var webhookClient = &http.Client{Timeout: 5 * time.Second}

// NotifyWebhook отправляет POST-уведомление о попытке обновления токена
// с нового IP адреса
func NotifyWebhook(webhookURL, userUUID, newIP, knownIP string) error {
	payload, err := json.Marshal(map[string]string{
		"user_uuid": userUUID,
		"new_ip":    newIP,
		"known_ip":  knownIP,
		"event":     "refresh_from_new_ip",
	})
	if err != nil {
		return fmt.Errorf("ошибка сериализации webhook: %w", err)
	}

	resp, err := webhookClient.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook вернул статус %d", resp.StatusCode)
	}

	return nil
}
