package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"crownside/backend/config"
	"crownside/backend/internal/dto"
	"crownside/backend/internal/model"
	"crownside/backend/pkg/jwt"
)

func newTestAuthService() (AuthService, *testRepos, *jwt.Manager) {
	repo, mocks := newTestRepository()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-tests",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	svc := NewAuthService(repo, jwtMgr, nil, zap.NewNop())
	return svc, mocks, jwtMgr
}

func TestRegister_CreatesClientByDefault(t *testing.T) {
	svc, mocks, jwtMgr := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "新客户",
		Email:    "client@crownside.test",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if resp.User == nil || resp.User.Role != model.RoleClient {
		t.Fatalf("未指定角色时应默认为 client，实得 %+v", resp.User)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("注册成功应签发双 Token")
	}

	// 密码必须以 bcrypt 哈希存储
	stored, _ := mocks.user.GetByEmail(ctx, "client@crownside.test")
	if stored.PasswordHash == "supersecret" || stored.PasswordHash == "" {
		t.Fatal("密码不能以明文或空值存储")
	}

	// AccessToken 可解析且携带正确身份
	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("解析 AccessToken 失败: %v", err)
	}
	if claims.UserID != stored.UserID || claims.Role != model.RoleClient || claims.TokenType != "access" {
		t.Fatalf("Token 声明不符: %+v", claims)
	}

	// 邮箱重复注册
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Name:     "重复注册",
		Email:    "client@crownside.test",
		Password: "anothersecret",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("重复邮箱应返回 ErrEmailTaken，实得 %v", err)
	}
}

func TestRegister_StylistRole(t *testing.T) {
	svc, _, _ := newTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "新造型师",
		Email:    "stylist@crownside.test",
		Password: "supersecret",
		Role:     model.RoleStylist,
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if resp.User.Role != model.RoleStylist {
		t.Fatalf("应按请求注册为 stylist，实得 %s", resp.User.Role)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "登录测试",
		Email:    "login@crownside.test",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}

	// 正确密码
	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "login@crownside.test", Password: "correct-password"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("登录成功应签发 AccessToken")
	}

	// 错误密码与不存在的邮箱返回同一错误，不泄露账号是否存在
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "login@crownside.test", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("错误密码应返回 ErrInvalidCredentials，实得 %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "ghost@crownside.test", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("不存在的邮箱应返回 ErrInvalidCredentials，实得 %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	svc, _, jwtMgr := newTestAuthService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "刷新测试",
		Email:    "refresh@crownside.test",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}

	// 合法 refresh token 换发新对
	resp, err := svc.RefreshToken(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("刷新成功应签发新 Token 对")
	}

	// access token 不能当 refresh token 用
	if _, err := svc.RefreshToken(ctx, reg.AccessToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("access token 刷新应被拒绝，实得 %v", err)
	}

	// 篡改的 token
	if _, err := svc.RefreshToken(ctx, reg.RefreshToken+"x"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("篡改 token 应被拒绝，实得 %v", err)
	}
	_ = jwtMgr
}

func TestLogout_DegradesWithoutRedis(t *testing.T) {
	svc, _, _ := newTestAuthService() // rdb == nil

	if err := svc.Logout(context.Background(), "some-jti", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Redis 不可用时登出应降级为空操作，实得 %v", err)
	}
}

func TestGetCurrentUser(t *testing.T) {
	svc, mocks, _ := newTestAuthService()
	ctx := context.Background()

	mocks.user.addUser("user-1", "当前用户", model.RoleStylist)

	resp, err := svc.GetCurrentUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("获取当前用户失败: %v", err)
	}
	if resp.Name != "当前用户" || resp.Role != model.RoleStylist {
		t.Fatalf("用户详情不符: %+v", resp)
	}

	if _, err := svc.GetCurrentUser(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("不存在的用户应返回 ErrUserNotFound，实得 %v", err)
	}
}
