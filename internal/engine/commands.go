package engine

import (
	"fmt"
	"strings"

	"emberfall-server/internal/domain"
)

// Фиксированные ответы диспетчера. Ошибки прав и поиска команд -
// НЕ исключения, а обычные сообщения пользователю.
const (
	MsgNoPermission   = "You do not have permission to use this command."
	MsgUnknownCommand = "That command does not exist."
)

// CommandHandler выполняет одну операторскую команду и возвращает
// текст ответа ("" - без ответа).
type CommandHandler func(actor domain.Object, args []string) string

// Command - зарегистрированная команда: префикс имени, требуемый
// уровень прав и обработчик.
type Command struct {
	Name       string
	Permission int
	Handler    CommandHandler
}

// Dispatcher маршрутизирует операторские/чатовые команды.
// Команды проверяются в порядке регистрации: выполняется ПЕРВАЯ,
// чье имя является префиксом ввода. Ровно одна команда на вызов.
type Dispatcher struct {
	commands []Command
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register добавляет команду в конец списка
func (d *Dispatcher) Register(name string, permission int, handler CommandHandler) {
	d.commands = append(d.commands, Command{Name: name, Permission: permission, Handler: handler})
}

// Dispatch разбирает ввод и выполняет подходящую команду.
// permission - уровень прав исполнителя; override пропускает проверку
// прав (консоль сервера).
func (d *Dispatcher) Dispatch(actor domain.Object, input string, permission int, override bool) string {
	for _, cmd := range d.commands {
		if !strings.HasPrefix(input, cmd.Name) {
			continue
		}
		if permission < cmd.Permission && !override {
			return MsgNoPermission
		}
		args := strings.Fields(input[len(cmd.Name):])
		return cmd.Handler(actor, args)
	}
	return MsgUnknownCommand
}

// RegisterDefaults подключает штатные команды сервера
func (d *Dispatcher) RegisterDefaults(s *GameService) {
	// kill <селектор>: убить совпавшие сущности
	d.Register("kill ", 2, func(actor domain.Object, args []string) string {
		if len(args) == 0 {
			return "Usage: kill <selector>"
		}
		matched, err := domain.FilterEntities(s.Level.Entities(), args[0])
		if err != nil {
			return fmt.Sprintf("Bad selector: %v", err)
		}
		for _, obj := range matched {
			obj.Base().Kill()
		}
		return fmt.Sprintf("Killed %d entities.", len(matched))
	})

	// reset: вернуть своего игрока в исходное состояние
	d.Register("reset", 0, func(actor domain.Object, args []string) string {
		player, ok := actor.(*domain.Player)
		if !ok {
			return "Only players can reset."
		}
		player.Reset()
		return "Reset."
	})

	// list <селектор>: перечислить совпавшие сущности
	d.Register("list", 1, func(actor domain.Object, args []string) string {
		selector := "*"
		if len(args) > 0 {
			selector = args[0]
		}
		matched, err := domain.FilterEntities(s.Level.Entities(), selector)
		if err != nil {
			return fmt.Sprintf("Bad selector: %v", err)
		}
		names := make([]string, 0, len(matched))
		for _, obj := range matched {
			names = append(names, fmt.Sprintf("%s (%s)", obj.Base().Name, obj.Base().Type))
		}
		return strings.Join(names, ", ")
	})

	// save: снять снимок уровня на диск
	d.Register("save", 3, func(actor domain.Object, args []string) string {
		if err := s.SaveLevel(); err != nil {
			return fmt.Sprintf("Save failed: %v", err)
		}
		return "Level saved."
	})
}
