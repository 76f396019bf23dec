package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userName  string
	userEmail string
	userRole  string
)

// userCmd 用户管理命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理命令",
	Long:  `用户管理相关的命令`,
}

// createUserCmd 创建用户命令
// 示例：./cms-api user create --name admin --email admin@example.com
var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "创建用户",
	Long:  `创建用户，默认角色为管理员，密码从终端交互读取`,
	Run: func(cmd *cobra.Command, args []string) {
		createUser()
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userName, "name", "", "用户名")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "邮箱")
	createUserCmd.Flags().StringVar(&userRole, "role", model.RoleAdmin, "角色 (admin/user)")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")

	userCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(userCmd)
}

// readPassword 从终端读取密码并确认
func readPassword() (string, error) {
	fmt.Print("请输入密码: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // 换行
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %v", err)
	}

	fmt.Print("请确认密码: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // 换行
	if err != nil {
		return "", fmt.Errorf("读取确认密码失败: %v", err)
	}

	if string(passwordBytes) != string(confirmBytes) {
		return "", fmt.Errorf("两次输入的密码不一致")
	}
	return string(passwordBytes), nil
}

// createUser 创建用户
func createUser() {
	a := mustInitialize()
	defer a.close()

	password, err := readPassword()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	user, err := a.svc.Users.Create(context.Background(), userName, userEmail, password, userRole)
	if err != nil {
		fmt.Printf("创建用户失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("用户创建成功！\n")
	fmt.Printf("ID: %d\n", user.ID)
	fmt.Printf("用户名: %s\n", user.Name)
	fmt.Printf("邮箱: %s\n", user.Email)
	fmt.Printf("角色: %s\n", user.Role)
}
