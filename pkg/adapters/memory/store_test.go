package memory_test

import (
	"testing"

	"github.com/necyberteam/qabot/pkg/adapters/memory"
	"github.com/necyberteam/qabot/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}
