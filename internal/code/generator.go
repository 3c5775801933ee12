// Пакет code — генерация коротких кодов для ссылок.
//
// Код — строка фиксированной длины из алфавита A-Z0-9 (36^8 вариантов
// при длине 8). Перед выдачей код проверяется на занятость в реестре;
// коллизия крайне маловероятна, но обрабатывается повторной генерацией.
package code

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// alphabet — алфавит кодов: заглавные латинские буквы и цифры.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxAttempts — предел повторных генераций при коллизиях.
const maxAttempts = 10

// ErrExhausted — не удалось выдать свободный код за maxAttempts попыток.
var ErrExhausted = errors.New("не удалось сгенерировать свободный код")

// Checker — проверка занятости кода в реестре.
// Реализуется RegistryRepository.
type Checker interface {
	CodeInUse(ctx context.Context, code string) (bool, error)
}

// Generator — генератор уникальных кодов.
type Generator struct {
	length  int
	checker Checker
}

// NewGenerator создаёт генератор кодов заданной длины.
func NewGenerator(length int, checker Checker) *Generator {
	return &Generator{length: length, checker: checker}
}

// Generate возвращает свободный код: генерирует случайную строку
// и проверяет её по реестру, повторяя при коллизии.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := g.random()
		if err != nil {
			return "", err
		}

		inUse, err := g.checker.CodeInUse(ctx, c)
		if err != nil {
			return "", fmt.Errorf("проверка кода в реестре: %w", err)
		}
		if !inUse {
			return c, nil
		}
	}
	return "", ErrExhausted
}

// random генерирует случайную строку из алфавита (crypto/rand).
func (g *Generator) random() (string, error) {
	buf := make([]byte, g.length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("генерация случайного кода: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
