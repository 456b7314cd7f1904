// cmd/hashpassword/main.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"storebot-admin/internal/auth"
)

// Печатает bcrypt-хеш для ADMIN_PASSWORD_HASH. Пароль берется из аргумента
// или, если аргумента нет, из первой строки stdin.
func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpassword <password>  (или пароль в stdin)")
			os.Exit(2)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "пароль не может быть пустым")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка хеширования: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
